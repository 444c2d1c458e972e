package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/transport"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FailedUpload is a file whose transport gave up. It stays queued.
type FailedUpload struct {
	Name    string
	FID     string
	Message string
}

// UploadReport summarises one Upload call.
type UploadReport struct {
	TxHash   string
	Height   int64
	Uploaded []models.Receipt
	Failed   []FailedUpload
}

type pending struct {
	e    *entry
	snap Entry
	// working is the content sent to storage.
	working string
}

// Upload registers every ready file with the ledger in one transaction and
// then delivers the files to storage. Ledger errors abort the batch; a
// failed delivery only leaves that file in the queue. Files registered by
// an earlier call are delivered again without a new transaction.
func (h *Handler) Upload(ctx context.Context, dir string) (*UploadReport, error) {
	owner, ok := h.ledger.CurrentAddress()
	if !ok {
		return nil, ErrNoAddress
	}
	if dir == "" {
		dir = h.cfg.DefaultDir
	}
	dir = strings.Trim(dir, "/")

	batch, err := h.takeReady()
	if err != nil {
		return nil, err
	}

	report := &UploadReport{}

	var fresh []pending
	for _, p := range batch {
		if p.snap.TxHash == "" {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) > 0 {
		hash, height, err := h.register(ctx, owner, dir, fresh)
		if err != nil {
			return nil, err
		}
		report.TxHash, report.Height = hash, height

		for i := range batch {
			if batch[i].snap.TxHash == "" {
				batch[i].snap.TxHash = hash
				batch[i].snap.NodePath = path.Join(dir, batch[i].snap.FID)
			}
		}
	} else {
		h.log.Info(ctx, "retrying delivery of registered files", "files", len(batch))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.UploadConcurrency)

	for _, p := range batch {
		g.Go(func() error {
			r, failed := h.deliver(gctx, owner, p)

			mu.Lock()
			defer mu.Unlock()
			if failed != nil {
				report.Failed = append(report.Failed, *failed)
			} else {
				report.Uploaded = append(report.Uploaded, *r)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Uploaded, func(a, b models.Receipt) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(report.Failed, func(a, b FailedUpload) int { return strings.Compare(a.Name, b.Name) })

	h.log.Info(ctx, "upload finished", "hash", report.TxHash, "uploaded", len(report.Uploaded), "failed", len(report.Failed))
	return report, nil
}

func (h *Handler) takeReady() ([]pending, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil, ErrQueueEmpty
	}

	var batch []pending
	for _, e := range h.entries {
		if e.Status != StatusReady {
			continue
		}
		batch = append(batch, pending{e: e, snap: e.snapshot(), working: e.working})
	}
	if len(batch) == 0 {
		return nil, ErrNothingReady
	}
	slices.SortFunc(batch, func(a, b pending) int { return strings.Compare(a.snap.Source.Name, b.snap.Source.Name) })
	return batch, nil
}

// register posts batch to the ledger and waits for the transaction. The
// entries still queued remember the transaction, so a later Upload does
// not post their fids again.
func (h *Handler) register(ctx context.Context, owner, dir string, batch []pending) (string, int64, error) {
	msgs, err := h.compose(owner, dir, batch)
	if err != nil {
		return "", 0, err
	}

	hash, err := h.ledger.SignAndBroadcast(ctx, msgs...)
	if err != nil {
		return "", 0, fmt.Errorf("broadcast: %w", err)
	}
	h.log.Info(ctx, "transaction broadcast", "hash", hash, "files", len(batch))

	res, err := h.ledger.WaitForTransaction(ctx, hash, h.cfg.TxTimeout, h.cfg.TxPollInterval)
	if err != nil {
		return "", 0, fmt.Errorf("confirm %s: %w", hash, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range batch {
		if h.attached(p.e) {
			p.e.TxHash = hash
			p.e.NodePath = path.Join(dir, p.snap.FID)
		}
	}
	return hash, res.Height, nil
}

// compose lists every MsgPostFile first, then the matching file nodes.
func (h *Handler) compose(owner, dir string, batch []pending) ([]chain.Msg, error) {
	now := h.now().UnixMilli()

	msgs := make([]chain.Msg, 0, 2*len(batch))
	for _, p := range batch {
		msgs = append(msgs, chain.NewMsgPostFile(p.snap.FID, owner, p.snap.MerkleRoot, p.snap.Size, p.snap.Replicas))
	}
	for _, p := range batch {
		name, extra := nodeMetadata(p.snap)
		node, err := chain.NewMsgPostFileNode(owner, path.Join(dir, p.snap.FID), chain.FileNodeContents{
			FID:          p.snap.FID,
			Owner:        owner,
			Name:         name,
			Size:         p.snap.Size,
			Type:         p.snap.Source.Type,
			LastModified: p.snap.Source.LastModified.UnixMilli(),
			MerkleRoot:   hex.EncodeToString(p.snap.MerkleRoot),
			LastUpdated:  now,
			DateCreated:  now,
			Metadata:     extra,
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, node)
	}
	return msgs, nil
}

// nodeMetadata splits an entry's metadata into the display name stored in
// the node and the remaining attributes. An empty name falls back to the
// source file name.
func nodeMetadata(e Entry) (string, map[string]string) {
	name := e.Metadata["name"]
	if name == "" {
		name = e.Source.Name
	}

	var extra map[string]string
	for k, v := range e.Metadata {
		if k == "name" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string, len(e.Metadata))
		}
		extra[k] = v
	}
	return name, extra
}

func (h *Handler) deliver(ctx context.Context, owner string, p pending) (*models.Receipt, *FailedUpload) {
	name := p.snap.Source.Name

	res := h.uploader.Upload(ctx, transport.Request{
		FID:      p.snap.FID,
		Owner:    owner,
		Path:     p.working,
		FileName: name,
		FileSize: p.snap.Size,
		FileType: p.snap.Source.Type,
	}, func(percent int) {
		h.notify(p.e, Event{Kind: EventProgress, Name: name, Percent: percent})
	})

	if !res.Success {
		h.log.Warn(ctx, "upload failed", "name", name, "fid", p.snap.FID, "message", res.Message)
		return nil, &FailedUpload{Name: name, FID: p.snap.FID, Message: res.Message}
	}

	r := &models.Receipt{
		ID:         uuid.NewString(),
		FID:        p.snap.FID,
		Name:       name,
		Path:       p.snap.NodePath,
		Owner:      owner,
		MerkleRoot: hex.EncodeToString(p.snap.MerkleRoot),
		Size:       p.snap.Size,
		Encrypted:  p.snap.Encrypted,
		TxHash:     p.snap.TxHash,
		UploadedAt: h.now(),
	}
	if h.receipts != nil {
		if err := h.receipts.Save(ctx, r); err != nil {
			h.log.Error(ctx, "saving receipt", "name", name, "error", err)
		}
	}

	h.mu.Lock()
	if h.attached(p.e) {
		h.detach(p.e)
	}
	h.mu.Unlock()

	return r, nil
}

// notify broadcasts ev while e is still queued.
func (h *Handler) notify(e *entry, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached(e) {
		h.broadcast(ev)
	}
}
