package ledger

import (
	"context"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
)

// Client is the ledger capability used by the upload queue.
type Client interface {
	// CurrentAddress returns the account address, or false when no wallet is
	// connected.
	CurrentAddress() (string, bool)
	SignAndBroadcast(ctx context.Context, msgs ...chain.Msg) (string, error)
	WaitForTransaction(ctx context.Context, hash string, timeout, pollInterval time.Duration) (*chain.TxResult, error)
}

// TxGetter looks up a recorded transaction. It returns ErrTxNotFound while
// the transaction is pending.
type TxGetter interface {
	GetTx(ctx context.Context, hash string) (*chain.TxResult, error)
}
