// Package httpapi serves the blob upload endpoint and the Prometheus metrics
// of the development node.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// formOverhead is allowed on top of the file size for the multipart framing
// and the text fields.
const formOverhead = 1 << 20

// BlobReceiver stores the body of a registered file.
type BlobReceiver interface {
	Receive(ctx context.Context, fid, owner string, declaredSize int64, body io.Reader) (int64, error)
}

type Options struct {
	Address       string
	Secret        []byte // empty disables the bearer token check
	MaxUploadSize int64
}

type HTTPServer struct {
	opts     Options
	blobs    BlobReceiver
	gatherer prometheus.Gatherer
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewHTTPServer builds the server. A nil gatherer leaves /metrics out.
func NewHTTPServer(opts Options, blobs BlobReceiver, g prometheus.Gatherer, l logging.Logger, m *metrics.Metrics) *HTTPServer {
	return &HTTPServer{
		opts:     opts,
		blobs:    blobs,
		gatherer: g,
		logger:   l.With("module", "http_server"),
		metrics:  m,
	}
}

// Handler returns the router with every route mounted.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLog())

	r.POST("/upload", s.upload)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.gatherer)))
	}
	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
