package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/wallet"
)

var (
	ErrUnavailable  = errors.New("ledger unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTxNotFound   = errors.New("transaction not found")
	ErrNoMessages   = errors.New("no messages to broadcast")
	ErrWrongSigner  = errors.New("message creator is not the wallet address")

	// ErrReadOnlyWallet is returned when broadcasting with a watch-only wallet.
	ErrReadOnlyWallet = wallet.ErrReadOnlyWallet
)

// TxError reports a transaction the chain rejected or failed to execute.
type TxError struct {
	Hash   string
	Code   uint32
	RawLog string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s failed with code %d: %s", e.Hash, e.Code, e.RawLog)
}

// TimeoutError reports a transaction that was not recorded in time.
type TimeoutError struct {
	Hash    string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not found after %s", e.Hash, e.Elapsed.Round(time.Millisecond))
}
