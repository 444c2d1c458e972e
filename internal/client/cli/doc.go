// Package cli provides the interactive atlaskeeper command-line client.
//
// NewApp wires configuration, the local receipts database, the wallet, the
// ledger client, the uploader and the upload queue. App.Run prints queue
// events in the background, watches ledger connectivity and runs a REPL
// until the user exits.
//
// Commands: add, list, meta, remove, clear, upload, receipts, status, exit.
package cli
