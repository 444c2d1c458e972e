// Package storage prepares local files for upload and drives the upload.
//
// # Overview
//
// Handler keeps an in-memory queue of files keyed by their original name.
// Enqueue registers a file and returns at once; a goroutine then takes the
// entry through its stages:
//
//	idle -> encrypting (optional) -> merkling -> ready
//
// Encryption writes a framed AES-GCM copy into the spool directory and
// every later stage reads that copy. The Merkle stage fingerprints the
// content and the file identifier is derived from the root, the account
// address and a per-entry nonce. Any failure parks the entry in the error
// status.
//
// Upload registers all ready files on the ledger in one transaction, waits
// for it to be recorded and then hands each file to the transport.
//
// # Concurrency
//
// The registry is guarded by one mutex. Each background task holds a
// pointer to its own entry and only touches the registry while the name
// still maps to that pointer, so a re-enqueued or cleared entry can never
// be overwritten by a stale task. Every stage honours the entry's context;
// cancellation removes the entry without an event.
//
// # Events
//
// Subscribe returns a channel of Event values. Per file, events arrive in
// stage order and error is terminal.
package storage
