package storage

import (
	"context"
	"maps"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/cryptox"
)

// Status is the processing stage of a queued file.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusEncrypting Status = "encrypting"
	StatusMerkling   Status = "merkling"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Source describes the original file as it was when queued.
type Source struct {
	Path         string
	Name         string
	Size         int64
	Type         string
	LastModified time.Time
}

// EncryptionOptions override the defaults of the encrypting stage. A nil
// Bundle is generated once, when the stage first runs.
type EncryptionOptions struct {
	ChunkSize int
	Bundle    *cryptox.Bundle
}

// FileOptions tune a single Enqueue call.
type FileOptions struct {
	// Replicas defaults to the handler's configured value.
	Replicas int
	Encrypt  bool
	// Encryption implies Encrypt.
	Encryption *EncryptionOptions
	// Metadata is merged over the default {"name": <base name>}.
	Metadata map[string]string
}

// Entry is a point-in-time copy of a queued file.
type Entry struct {
	ID         string
	Source     Source
	Status     Status
	FID        string
	MerkleRoot []byte
	Nonce      uint32
	Replicas   int
	Encrypted  bool
	// Size is the length of the content that will be uploaded.
	Size     int64
	Metadata map[string]string
	Error    string
	QueuedAt time.Time
	// TxHash and NodePath are set once the file is registered with the
	// ledger.
	TxHash   string
	NodePath string
}

// entry is the registry record. All fields are guarded by Handler.mu.
type entry struct {
	Entry

	encryption *EncryptionOptions
	// ownsKey is set when the handler generated the bundle itself.
	ownsKey bool
	// working is the file the next stage reads: the source, or its
	// encrypted spool copy.
	working string
	spool   string
	cancel  context.CancelFunc
}

func (e *entry) snapshot() Entry {
	s := e.Entry
	s.MerkleRoot = append([]byte(nil), e.MerkleRoot...)
	s.Metadata = maps.Clone(e.Metadata)
	return s
}

// wipeKey zeroes a bundle the handler generated. A caller's bundle is left
// alone.
func (e *entry) wipeKey() {
	if e.ownsKey {
		e.encryption.Bundle.Wipe()
	}
}

func (e *entry) finished() bool {
	return e.Status == StatusReady || e.Status == StatusError
}
