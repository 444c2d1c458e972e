package storage

import (
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/ledger"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/transport"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/cryptox"
	"github.com/dmitrijs2005/atlaskeeper/internal/fid"
	"github.com/dmitrijs2005/atlaskeeper/internal/filex"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/merkle"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/google/uuid"
)

// Config carries the queue's defaults.
type Config struct {
	Replicas            int
	MerkleChunkSize     int
	EncryptionChunkSize int
	SpoolDir            string
	DefaultDir          string
	UploadConcurrency   int
	TxTimeout           time.Duration
	TxPollInterval      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Replicas < 1 {
		c.Replicas = common.DefaultReplicas
	}
	if c.MerkleChunkSize <= 0 {
		c.MerkleChunkSize = merkle.DefaultChunkSize
	}
	if c.EncryptionChunkSize <= 0 {
		c.EncryptionChunkSize = cryptox.DefaultChunkSize
	}
	if c.SpoolDir == "" {
		c.SpoolDir = os.TempDir()
	}
	if c.DefaultDir == "" {
		c.DefaultDir = "home"
	}
	if c.UploadConcurrency < 1 {
		c.UploadConcurrency = 4
	}
	if c.TxTimeout <= 0 {
		c.TxTimeout = time.Minute
	}
	if c.TxPollInterval <= 0 {
		c.TxPollInterval = time.Second
	}
	return c
}

// ReceiptStore persists successful uploads.
type ReceiptStore interface {
	Save(ctx context.Context, r *models.Receipt) error
}

// Handler owns the upload queue.
type Handler struct {
	cfg      Config
	ledger   ledger.Client
	uploader transport.Uploader
	receipts ReceiptStore
	log      logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newNonce func() uint32
	// openWorking opens the content a Merkle tree is built from.
	openWorking func(name string) (io.ReadCloser, error)

	// base parents every task context; Close cancels it.
	base     context.Context
	shutdown context.CancelFunc
	tasks    sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewHandler returns an empty queue. receipts may be nil.
func NewHandler(cfg Config, lc ledger.Client, up transport.Uploader, receipts ReceiptStore,
	log logging.Logger, m *metrics.Metrics) *Handler {

	base, shutdown := context.WithCancel(context.Background())
	return &Handler{
		cfg:         cfg.withDefaults(),
		ledger:      lc,
		uploader:    up,
		receipts:    receipts,
		log:         log.With("module", "storage"),
		metrics:     m,
		now:         time.Now,
		newNonce:    fid.NewNonce,
		openWorking: openFile,
		base:        base,
		shutdown:    shutdown,
		entries:     make(map[string]*entry),
		subs:        make(map[int]chan Event),
	}
}

func openFile(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Enqueue stats path, queues it under its base name and starts processing
// in the background. A file already queued under the same name is replaced
// and its processing cancelled. Only an unreadable source is an error.
func (h *Handler) Enqueue(ctx context.Context, path string, opts FileOptions) (*Entry, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	_ = f.Close()

	name := filepath.Base(path)
	ext := filepath.Ext(name)

	replicas := opts.Replicas
	if replicas < 1 {
		replicas = h.cfg.Replicas
	}

	enc := opts.Encryption
	if enc == nil && opts.Encrypt {
		enc = &EncryptionOptions{}
	}
	if enc != nil && enc.ChunkSize <= 0 {
		enc = &EncryptionOptions{ChunkSize: h.cfg.EncryptionChunkSize, Bundle: enc.Bundle}
	}

	md := map[string]string{"name": strings.TrimSuffix(name, ext)}
	maps.Copy(md, opts.Metadata)

	e := &entry{
		Entry: Entry{
			ID: uuid.NewString(),
			Source: Source{
				Path:         path,
				Name:         name,
				Size:         fi.Size(),
				Type:         mime.TypeByExtension(ext),
				LastModified: fi.ModTime(),
			},
			Status:    StatusIdle,
			Nonce:     h.newNonce(),
			Replicas:  replicas,
			Encrypted: enc != nil,
			Size:      fi.Size(),
			Metadata:  md,
			QueuedAt:  h.now(),
		},
		encryption: enc,
		working:    path,
	}

	taskCtx, cancel := context.WithCancel(h.base)
	e.cancel = cancel

	h.mu.Lock()
	if old, ok := h.entries[name]; ok {
		h.detach(old)
		old.cancel()
		h.log.Info(ctx, "replacing queued file", "name", name, "status", old.Status)
	}
	h.entries[name] = e
	h.metrics.EntryMoved("", string(StatusIdle))
	snap := e.snapshot()
	h.mu.Unlock()

	h.log.Debug(ctx, "queued file", "name", name, "size", fi.Size(), "encrypt", enc != nil, "replicas", replicas)

	h.tasks.Add(1)
	go h.process(taskCtx, e)

	return &snap, nil
}

// detach drops e from the registry. A finished entry has no task left to
// clean up its spool copy and key, so they are released here. Callers hold
// h.mu.
func (h *Handler) detach(e *entry) {
	if cur, ok := h.entries[e.Source.Name]; ok && cur == e {
		delete(h.entries, e.Source.Name)
	}
	h.metrics.EntryMoved(string(e.Status), "")
	if e.finished() {
		_ = filex.RemoveIfExists(e.spool)
		e.wipeKey()
	}
}

// attached reports whether the registry still maps e's name to e.
// Callers hold h.mu.
func (h *Handler) attached(e *entry) bool {
	cur, ok := h.entries[e.Source.Name]
	return ok && cur == e
}

// Get returns a snapshot of the named entry.
func (h *Handler) Get(name string) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[name]
	if !ok {
		return Entry{}, ErrNotQueued
	}
	return e.snapshot(), nil
}

// Status returns the processing status of the named entry.
func (h *Handler) Status(name string) (Status, error) {
	e, err := h.Get(name)
	if err != nil {
		return "", err
	}
	return e.Status, nil
}

// List returns snapshots of all entries ordered by name.
func (h *Handler) List() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, 0, len(h.entries))
	for _, name := range slices.Sorted(maps.Keys(h.entries)) {
		out = append(out, h.entries[name].snapshot())
	}
	return out
}

// UpdateMetadata merges partial into the entry's metadata.
func (h *Handler) UpdateMetadata(name string, partial map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[name]
	if !ok {
		return ErrNotQueued
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]string, len(partial))
	}
	maps.Copy(e.Metadata, partial)
	return nil
}

// Remove drops a ready or failed entry at once. An entry still being
// processed is cancelled instead and disappears when its task unwinds.
func (h *Handler) Remove(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[name]
	if !ok {
		return ErrNotQueued
	}
	if e.finished() {
		h.detach(e)
		return nil
	}
	e.cancel()
	return nil
}

// Clear empties the queue without cancelling running tasks. Their results
// and events are discarded.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		h.detach(e)
	}
}

// Close cancels every task and waits for them to exit.
func (h *Handler) Close() {
	h.shutdown()
	h.tasks.Wait()
}
