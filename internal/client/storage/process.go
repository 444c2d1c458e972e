package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/cryptox"
	"github.com/dmitrijs2005/atlaskeeper/internal/fid"
	"github.com/dmitrijs2005/atlaskeeper/internal/filex"
	"github.com/dmitrijs2005/atlaskeeper/internal/merkle"
)

// process runs the stages of e in order. It owns e's spool file until e is
// ready, and only touches e while the registry still maps e's name to it.
func (h *Handler) process(ctx context.Context, e *entry) {
	defer h.tasks.Done()
	defer e.cancel()
	defer h.release(e)

	err := h.runStages(ctx, e)

	switch {
	case err == nil:
		return
	case ctx.Err() != nil:
		h.abandon(ctx, e)
	default:
		h.fail(ctx, e, err)
	}
}

func (h *Handler) runStages(ctx context.Context, e *entry) error {
	if e.encryption != nil {
		if err := h.encrypt(ctx, e); err != nil {
			return err
		}
	}

	root, err := h.buildMerkle(ctx, e)
	if err != nil {
		return err
	}

	owner, ok := h.ledger.CurrentAddress()
	if !ok {
		return ErrNoAddress
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Cancellation wins over a tree that finished at the same time.
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.attached(e) {
		_ = filex.RemoveIfExists(e.spool)
		return nil
	}

	e.FID = fid.Derive(root, owner, e.Nonce)
	h.setStatus(e, StatusReady)
	h.log.Info(ctx, "file ready", "name", e.Source.Name, "fid", e.FID, "size", e.Size)
	h.broadcast(Event{Kind: EventReady, Name: e.Source.Name})
	return nil
}

func (h *Handler) encrypt(ctx context.Context, e *entry) error {
	start := time.Now()

	h.mu.Lock()
	if !h.attached(e) {
		h.mu.Unlock()
		return context.Canceled
	}
	h.setStatus(e, StatusEncrypting)
	if e.encryption.Bundle == nil {
		b, err := cryptox.GenerateBundle()
		if err != nil {
			h.mu.Unlock()
			return err
		}
		e.encryption.Bundle = b
		e.ownsKey = true
	}
	bundle := e.encryption.Bundle
	chunk := e.encryption.ChunkSize
	h.mu.Unlock()

	src, err := os.Open(e.Source.Path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := filex.CreateSpoolFile(h.cfg.SpoolDir, e.Source.Name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	e.spool = dst.Name()
	h.mu.Unlock()

	n, err := cryptox.EncryptStream(ctx, dst, src, bundle, chunk)
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close spool file: %w", cerr)
	}
	if err != nil {
		return err
	}

	h.metrics.ObserveStage(string(StatusEncrypting), time.Since(start))

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.attached(e) {
		return context.Canceled
	}
	e.working = e.spool
	e.Size = n
	h.broadcast(Event{Kind: EventEncrypted, Name: e.Source.Name, FileSize: n})
	return nil
}

func (h *Handler) buildMerkle(ctx context.Context, e *entry) ([]byte, error) {
	start := time.Now()

	h.mu.Lock()
	if !h.attached(e) {
		h.mu.Unlock()
		return nil, context.Canceled
	}
	h.setStatus(e, StatusMerkling)
	working := e.working
	h.mu.Unlock()

	f, err := h.openWorking(working)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", working, err)
	}
	defer f.Close()

	tree, err := merkle.Build(ctx, f, h.cfg.MerkleChunkSize, merkle.Blake3)
	if err != nil {
		return nil, err
	}
	root := tree.Root()

	h.metrics.ObserveStage(string(StatusMerkling), time.Since(start))

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.attached(e) {
		return nil, context.Canceled
	}
	if e.MerkleRoot == nil {
		e.MerkleRoot = root
	}
	h.broadcast(Event{Kind: EventMerkleBuilt, Name: e.Source.Name, MerkleRoot: hex.EncodeToString(e.MerkleRoot)})
	return e.MerkleRoot, nil
}

// release wipes the key of an entry that left the queue while its task ran.
// Entries still queued are wiped by detach.
func (h *Handler) release(e *entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.attached(e) {
		e.wipeKey()
	}
}

// abandon handles a cancelled task: the entry leaves the queue silently.
func (h *Handler) abandon(ctx context.Context, e *entry) {
	h.mu.Lock()
	if h.attached(e) {
		delete(h.entries, e.Source.Name)
		h.metrics.EntryMoved(string(e.Status), "")
	}
	spool := e.spool
	h.mu.Unlock()

	_ = filex.RemoveIfExists(spool)
	h.log.Info(ctx, "processing cancelled", "name", e.Source.Name)
}

func (h *Handler) fail(ctx context.Context, e *entry, err error) {
	if errors.Is(err, context.Canceled) {
		h.abandon(ctx, e)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_ = filex.RemoveIfExists(e.spool)
	e.spool = ""

	if !h.attached(e) {
		return
	}
	e.Error = err.Error()
	h.setStatus(e, StatusError)
	h.log.Error(ctx, "processing failed", "name", e.Source.Name, "error", err)
	h.broadcast(Event{Kind: EventError, Name: e.Source.Name, Message: err.Error()})
}

// setStatus moves e forward. Callers hold h.mu.
func (h *Handler) setStatus(e *entry, s Status) {
	h.metrics.EntryMoved(string(e.Status), string(s))
	e.Status = s
}
