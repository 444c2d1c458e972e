// Package ledger talks to the chain that registers files before upload.
//
// # Overview
//
// Client is the capability the upload queue needs: the current account
// address, signing and broadcasting a batch of messages, and waiting for
// the transaction to be recorded. GRPCClient implements it over the
// atlas.tx.v1.Service RPC with a wallet chosen by configuration; a
// watch-only wallet yields the address but cannot broadcast.
//
// # Errors
//
// Transport failures map to ErrUnavailable and ErrUnauthorized. A
// transaction the chain rejects is reported as *TxError carrying its code
// and raw log, and a transaction that is not recorded in time as
// *TimeoutError.
package ledger
