package models

import "time"

// Receipt records a file that was registered on the ledger and delivered to
// storage.
type Receipt struct {
	// ID is a locally generated UUID.
	ID string

	// FID is the network-wide file identifier.
	FID string

	// Name is the original file name; Path the file tree node it was posted to.
	Name string
	Path string

	// Owner is the account address that registered the file.
	Owner string

	// MerkleRoot is the hex root of the uploaded content.
	MerkleRoot string

	// Size is the number of bytes uploaded, which is the ciphertext size for
	// encrypted files.
	Size      int64
	Encrypted bool

	// TxHash is the registering transaction.
	TxHash string

	UploadedAt time.Time
}
