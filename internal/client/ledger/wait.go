package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
)

// WaitForTransaction polls g every pollInterval until hash is recorded or
// timeout elapses. A recorded transaction with a non-zero code is returned
// together with a *TxError.
func WaitForTransaction(ctx context.Context, g TxGetter, hash string, timeout, pollInterval time.Duration) (*chain.TxResult, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	start := time.Now()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		res, err := g.GetTx(ctx, hash)
		switch {
		case err == nil:
			if res.Code != 0 {
				return res, &TxError{Hash: hash, Code: res.Code, RawLog: res.RawLog}
			}
			return res, nil
		case !errors.Is(err, ErrTxNotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, &TimeoutError{Hash: hash, Elapsed: time.Since(start)}
		case <-ticker.C:
		}
	}
}
