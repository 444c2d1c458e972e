package chain

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/codec"
	"google.golang.org/grpc"
)

const (
	ServiceName           = "atlas.tx.v1.Service"
	BroadcastTxFullMethod = "/" + ServiceName + "/BroadcastTx"
	GetTxFullMethod       = "/" + ServiceName + "/GetTx"
)

// TxServiceServer is implemented by the development node.
type TxServiceServer interface {
	BroadcastTx(context.Context, *BroadcastTxRequest) (*BroadcastTxResponse, error)
	// GetTx returns codes.NotFound until the transaction is recorded.
	GetTx(context.Context, *GetTxRequest) (*GetTxResponse, error)
}

// TxServiceClient is the client side of TxServiceServer.
type TxServiceClient interface {
	BroadcastTx(ctx context.Context, in *BroadcastTxRequest, opts ...grpc.CallOption) (*BroadcastTxResponse, error)
	GetTx(ctx context.Context, in *GetTxRequest, opts ...grpc.CallOption) (*GetTxResponse, error)
}

type txServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTxServiceClient(cc grpc.ClientConnInterface) TxServiceClient {
	return &txServiceClient{cc: cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
}

func (c *txServiceClient) BroadcastTx(ctx context.Context, in *BroadcastTxRequest, opts ...grpc.CallOption) (*BroadcastTxResponse, error) {
	out := new(BroadcastTxResponse)
	if err := c.cc.Invoke(ctx, BroadcastTxFullMethod, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *txServiceClient) GetTx(ctx context.Context, in *GetTxRequest, opts ...grpc.CallOption) (*GetTxResponse, error) {
	out := new(GetTxResponse)
	if err := c.cc.Invoke(ctx, GetTxFullMethod, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterTxServiceServer attaches srv to s.
func RegisterTxServiceServer(s grpc.ServiceRegistrar, srv TxServiceServer) {
	s.RegisterService(&TxServiceDesc, srv)
}

func broadcastTxHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BroadcastTxRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TxServiceServer).BroadcastTx(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BroadcastTxFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TxServiceServer).BroadcastTx(ctx, req.(*BroadcastTxRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getTxHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetTxRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TxServiceServer).GetTx(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetTxFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TxServiceServer).GetTx(ctx, req.(*GetTxRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TxServiceDesc describes atlas.tx.v1.Service.
var TxServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TxServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BroadcastTx", Handler: broadcastTxHandler},
		{MethodName: "GetTx", Handler: getTxHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "atlas/tx/v1/service",
}
