package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/config"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/ledger"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/repositories"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/storage"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/transport"
	"github.com/dmitrijs2005/atlaskeeper/internal/filex"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// queue is the part of storage.Handler the commands use.
type queue interface {
	Enqueue(ctx context.Context, path string, opts storage.FileOptions) (*storage.Entry, error)
	List() []storage.Entry
	UpdateMetadata(name string, partial map[string]string) error
	Remove(name string) error
	Clear()
	Upload(ctx context.Context, dir string) (*storage.UploadReport, error)
	Subscribe(buffer int) (<-chan storage.Event, func())
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config     *config.Config
	queue      queue
	receipts   receipts.Repository
	ledger     pinger
	address    string
	walletKind string
	reader     *bufio.Reader
	out        io.Writer
	log        logging.Logger

	modeMu sync.Mutex
	Mode   Mode

	closers []func() error
}

// NewApp wires logging, metrics, the receipts database, the wallet, the
// ledger client, the uploader and the upload queue from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	a := &App{
		config: c,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	log, closer, err := logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a.log = log
	a.closers = append(a.closers, closer.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	spool, err := filex.EnsureSubdDir(c.SpoolDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	db, err := repositories.InitDatabase(ctx, c.ReceiptsDSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	repos := repositories.New(db)
	a.receipts = repos.Receipts

	w, err := openWallet(c, a.out)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.address = w.Address()
	a.walletKind = c.WalletKind

	lc, err := ledger.NewGRPCClient(c.LedgerEndpoint, c.ChainID, w, log, m)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ledger = lc
	a.closers = append(a.closers, lc.Close)

	up, err := newUploader(ctx, c, log, m)
	if err != nil {
		a.Close()
		return nil, err
	}

	h := storage.NewHandler(storage.Config{
		Replicas:            c.Replicas,
		MerkleChunkSize:     c.MerkleChunkSize,
		EncryptionChunkSize: c.EncryptionChunkSize,
		SpoolDir:            spool,
		DefaultDir:          c.DefaultDir,
		UploadConcurrency:   c.UploadConcurrency,
		TxTimeout:           c.TxTimeout,
		TxPollInterval:      c.TxPollInterval,
	}, lc, up, repos.Receipts, log, m)
	a.queue = h
	a.closers = append(a.closers, func() error { h.Close(); return nil })

	if c.MetricsAddr != "" {
		srv := &http.Server{Addr: c.MetricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
		a.closers = append(a.closers, srv.Close)
	}

	return a, nil
}

func newUploader(ctx context.Context, c *config.Config, log logging.Logger, m *metrics.Metrics) (transport.Uploader, error) {
	opts := transport.Options{Attempts: c.UploadAttempts, RetryDelay: c.RetryDelay, Timeout: c.UploadTimeout}

	switch c.Transport {
	case config.TransportHTTP:
		var secret []byte
		if c.UploadSecret != "" {
			secret = []byte(c.UploadSecret)
		}
		return transport.NewHTTPUploader(c.UploadEndpoint, secret, opts, log, m), nil
	case config.TransportS3:
		up, err := transport.NewS3Uploader(ctx, transport.S3Config{
			Bucket:       c.S3.Bucket,
			Region:       c.S3.Region,
			BaseEndpoint: c.S3.Endpoint,
			AccessKey:    c.S3.AccessKey,
			SecretKey:    c.S3.SecretKey,
		}, opts, log, m)
		if err != nil {
			return nil, err
		}
		return up, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "ledger connectivity changed", "mode", string(mode))
	}
}

func (a *App) getStatus() string {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	s := shortAddress(a.address)
	if a.Mode != "" {
		s += " " + string(a.Mode)
	}
	return fmt.Sprintf("(%s)", s)
}

// StartOnlineStatusWatcher pings the ledger every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.ledger.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// Run prints events in the background and runs the REPL on stdin until
// the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := a.queue.Subscribe(64)
	defer unsubscribe()
	go a.printEvents(ctx, events)

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to atlaskeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
