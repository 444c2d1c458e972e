// Package server wires and runs the development node: the ledger gRPC
// service, the blob upload endpoint and the registry store behind them.
package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/atlaskeeper/internal/filex"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/config"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/services"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/shared/db"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/atlaskeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	grpcServer *gs.GRPCServer
	httpServer *httpapi.HTTPServer

	closers []func() error
}

// NewApp opens the registry (PostgreSQL when a DSN is configured, memory
// otherwise) and builds both servers from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	a := &App{config: c}

	logger, closer, err := logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, closer.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	repos, err := openRepositories(ctx, c.DatabaseDSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	a.closers = append(a.closers, repos.Close)

	blobDir, err := filex.EnsureSubdDir(c.BlobDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	txs := services.NewTxService(repos, c.ChainID, c.AddressPrefix, logger)
	blobs := services.NewBlobService(repos, blobDir, logger)

	a.grpcServer = gs.NewGRPCServer(c.GRPCAddr, logger, txs, m)

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var secret []byte
	if c.SecretKey != "" {
		secret = []byte(c.SecretKey)
	}
	a.httpServer = httpapi.NewHTTPServer(httpapi.Options{
		Address:       c.HTTPAddr,
		Secret:        secret,
		MaxUploadSize: c.MaxUploadSize,
	}, blobs, reg, logger, m)

	return a, nil
}

func openRepositories(ctx context.Context, dsn string) (db.RepositoryManager, error) {
	if dsn == "" {
		return db.NewInMemoryRepositoryManager(), nil
	}
	return db.NewPostgresRepositoryManager(ctx, dsn)
}

// Close releases everything NewApp opened, in reverse order.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		_ = app.closers[i]()
	}
	app.closers = nil
}

// Run serves until ctx is cancelled or one of the servers fails, which
// stops the other.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	app.logger.Info(ctx, "Starting app...", "chain_id", app.config.ChainID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.grpcServer.Run(ctx)
	})
	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
