package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/dmitrijs2005/atlaskeeper/internal/wallet"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	chainID     string
	conn        *grpc.ClientConn
	client      chain.TxServiceClient
	health      healthpb.HealthClient
	wallet      wallet.Wallet
	log         logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewGRPCClient connects lazily to endpointURL. A nil wallet means no
// account is connected.
func NewGRPCClient(endpointURL, chainID string, w wallet.Wallet, log logging.Logger, m *metrics.Metrics, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		chainID:     chainID,
		wallet:      w,
		log:         log.With("module", "ledger"),
		metrics:     m,
		now:         time.Now,
	}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return err
	}
	c.conn = conn
	c.client = chain.NewTxServiceClient(conn)
	c.health = healthpb.NewHealthClient(conn)
	return nil
}

// requestIDInterceptor tags every call so node logs can be correlated.
func requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) CurrentAddress() (string, bool) {
	if c.wallet == nil {
		return "", false
	}
	addr := c.wallet.Address()
	return addr, addr != ""
}

// SignAndBroadcast wraps msgs in one transaction signed by the wallet and
// submits it. The returned hash identifies the transaction for
// WaitForTransaction. A rejected transaction yields *TxError.
func (c *GRPCClient) SignAndBroadcast(ctx context.Context, msgs ...chain.Msg) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}
	if c.wallet == nil || c.wallet.PublicKey() == nil {
		return "", ErrReadOnlyWallet
	}

	address := c.wallet.Address()
	body := chain.TxBody{ChainID: c.chainID, Timestamp: c.now().UnixNano()}
	for _, m := range msgs {
		if m.Signer() != address {
			return "", fmt.Errorf("%w: %s", ErrWrongSigner, m.TypeURL())
		}
		a, err := chain.Pack(m)
		if err != nil {
			return "", err
		}
		body.Messages = append(body.Messages, a)
	}

	signBytes, err := body.SignBytes()
	if err != nil {
		return "", fmt.Errorf("sign bytes: %w", err)
	}
	sig, err := c.wallet.Sign(signBytes)
	if err != nil {
		return "", err
	}

	txBytes, err := chain.SignedTx{Body: body, PubKey: c.wallet.PublicKey(), Signature: sig}.Encode()
	if err != nil {
		return "", fmt.Errorf("encode tx: %w", err)
	}

	resp, err := c.client.BroadcastTx(ctx, &chain.BroadcastTxRequest{TxBytes: txBytes})
	if err != nil {
		c.metrics.Broadcast("failed")
		return "", c.mapError(err)
	}
	if resp.Code != chain.CodeOK {
		c.metrics.Broadcast("rejected")
		c.log.Warn(ctx, "transaction rejected", "hash", resp.TxHash, "code", resp.Code, "log", resp.RawLog)
		return resp.TxHash, &TxError{Hash: resp.TxHash, Code: resp.Code, RawLog: resp.RawLog}
	}

	c.metrics.Broadcast("ok")
	c.log.Info(ctx, "transaction broadcast", "hash", resp.TxHash, "messages", len(msgs))
	return resp.TxHash, nil
}

// GetTx returns ErrTxNotFound while the transaction is pending.
func (c *GRPCClient) GetTx(ctx context.Context, hash string) (*chain.TxResult, error) {
	resp, err := c.client.GetTx(ctx, &chain.GetTxRequest{Hash: hash})
	if err != nil {
		return nil, c.mapError(err)
	}
	return &resp.Result, nil
}

func (c *GRPCClient) WaitForTransaction(ctx context.Context, hash string, timeout, pollInterval time.Duration) (*chain.TxResult, error) {
	return WaitForTransaction(ctx, c, hash, timeout, pollInterval)
}

// Ping checks the node's health service.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return c.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return ErrTxNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
