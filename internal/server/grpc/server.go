// Package grpc serves the ledger transaction service of the development node
// together with the standard gRPC health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TxProcessor is the transaction logic behind the service.
type TxProcessor interface {
	Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastTxResponse, error)
	GetTx(ctx context.Context, hash string) (*chain.TxResult, error)
}

type GRPCServer struct {
	address string
	txs     TxProcessor
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewGRPCServer(a string, l logging.Logger, txs TxProcessor, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		txs:     txs,
		metrics: m,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestLogInterceptor))

	chain.RegisterTxServiceServer(srv, &txHandler{server: s})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(chain.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
