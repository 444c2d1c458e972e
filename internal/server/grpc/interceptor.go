package grpc

import (
	"context"
	"path"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestLogInterceptor logs every unary call with the client's request id
// and counts it by method and status code.
func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.RequestIDHeaderName)
		if len(values) > 0 {
			requestID = values[0]
		}
	}

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	method := path.Base(info.FullMethod)
	s.metrics.RPC(method, code.String())
	s.logger.Debug(ctx, "rpc", "method", method, "code", code.String(), "request_id", requestID, "duration", time.Since(start))

	return resp, err
}
