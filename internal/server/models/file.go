// Package models defines server-side data models persisted by the
// development node.
package models

import "time"

// File is a storage registration made by MsgPostFile. The blob itself lives
// in the node's blob directory once it has been uploaded.
type File struct {
	// FID is the file identifier derived by the client.
	FID string
	// Creator is the address that signed the registration.
	Creator string
	// Merkle is the raw root digest.
	Merkle   []byte
	FileSize int64
	Replicas int64

	Subscription string

	// TxHash is the transaction that registered the file.
	TxHash    string
	CreatedAt time.Time

	// Uploaded is set once a blob of FileSize bytes has been received.
	Uploaded bool
}

// Node is one entry of an owner's file tree.
type Node struct {
	Owner    string
	Path     string
	NodeType string
	// Contents is the JSON document posted with the node.
	Contents  string
	TxHash    string
	UpdatedAt time.Time
}

// Tx is the recorded outcome of a broadcast transaction.
type Tx struct {
	Hash   string
	Height int64
	Code   uint32
	RawLog string

	CreatedAt time.Time
}
