package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// txHandler adapts TxProcessor to chain.TxServiceServer.
type txHandler struct {
	server *GRPCServer
}

func (h *txHandler) BroadcastTx(ctx context.Context, req *chain.BroadcastTxRequest) (*chain.BroadcastTxResponse, error) {

	if len(req.TxBytes) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty transaction")
	}

	resp, err := h.server.txs.Broadcast(ctx, req.TxBytes)
	if err != nil {
		h.server.logger.Error(ctx, "broadcast failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return resp, nil
}

func (h *txHandler) GetTx(ctx context.Context, req *chain.GetTxRequest) (*chain.GetTxResponse, error) {

	result, err := h.server.txs.GetTx(ctx, req.Hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.NotFound, "transaction not found")
		}
		h.server.logger.Error(ctx, "get tx failed", "hash", req.Hash, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &chain.GetTxResponse{Result: *result}, nil
}
