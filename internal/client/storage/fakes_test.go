package storage

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/transport"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

const testOwner = "atl1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu"

type fakeLedger struct {
	mu sync.Mutex

	// address overrides addr when set.
	address func() (string, bool)
	addr    string

	// gate, when set, blocks CurrentAddress until it is closed. entered
	// receives a value each time a caller starts waiting.
	gate    chan struct{}
	entered chan struct{}

	msgs         []chain.Msg
	broadcastErr error
	waitErr      error
	height       int64
}

func (f *fakeLedger) CurrentAddress() (string, bool) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if f.address != nil {
		return f.address()
	}
	return f.addr, f.addr != ""
}

func (f *fakeLedger) SignAndBroadcast(_ context.Context, msgs ...chain.Msg) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broadcastErr != nil {
		return "", f.broadcastErr
	}
	f.msgs = append(f.msgs, msgs...)
	return "ABCDEF", nil
}

func (f *fakeLedger) WaitForTransaction(_ context.Context, hash string, _, _ time.Duration) (*chain.TxResult, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &chain.TxResult{Hash: hash, Height: f.height}, nil
}

func (f *fakeLedger) broadcasted() []chain.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chain.Msg(nil), f.msgs...)
}

type fakeUploader struct {
	mu       sync.Mutex
	requests []transport.Request
	// fail lists file names whose upload fails.
	fail map[string]bool
}

func (f *fakeUploader) Upload(_ context.Context, req transport.Request, onProgress transport.ProgressFunc) transport.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	failed := f.fail[req.FileName]
	f.mu.Unlock()

	onProgress(0)
	if failed {
		return transport.Result{Message: "upload failed. last error: boom"}
	}
	onProgress(100)
	return transport.Result{Success: true, Message: "file uploaded successfully"}
}

// succeed lets later uploads of name go through.
func (f *fakeUploader) succeed(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fail, name)
}

func (f *fakeUploader) calls() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.requests...)
}

type memReceipts struct {
	mu   sync.Mutex
	list []models.Receipt
}

func (m *memReceipts) Save(_ context.Context, r *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, *r)
	return nil
}

func newTestHandler(t *testing.T, cfg Config, lc *fakeLedger, up *fakeUploader, rs ReceiptStore) *Handler {
	t.Helper()
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = t.TempDir()
	}
	if up == nil {
		up = &fakeUploader{}
	}
	h := NewHandler(cfg, lc, up, rs, logging.Discard(), nil)
	t.Cleanup(func() {
		if lc.gate != nil {
			select {
			case <-lc.gate:
			default:
				close(lc.gate)
			}
		}
		h.Close()
	})
	return h
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

// waitFor collects events for name until one of kind arrives.
func waitFor(t *testing.T, ch <-chan Event, name string, kind EventKind) []Event {
	t.Helper()
	var seen []Event
	for {
		select {
		case ev := <-ch:
			if ev.Name != name {
				continue
			}
			seen = append(seen, ev)
			if ev.Kind == kind {
				return seen
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s event for %s, got %+v", kind, name, seen)
		}
	}
}

// waitReady waits until every name has reported ready, in any order.
func waitReady(t *testing.T, ch <-chan Event, names ...string) {
	t.Helper()
	pending := make(map[string]bool, len(names))
	for _, name := range names {
		pending[name] = true
	}
	timeout := time.After(5 * time.Second)
	for len(pending) > 0 {
		select {
		case ev := <-ch:
			switch {
			case ev.Kind == EventReady:
				delete(pending, ev.Name)
			case ev.Kind == EventError && pending[ev.Name]:
				t.Fatalf("%s failed: %s", ev.Name, ev.Message)
			}
		case <-timeout:
			t.Fatalf("no ready event for %v", slices.Sorted(maps.Keys(pending)))
		}
	}
}

func kinds(evs []Event) []EventKind {
	out := make([]EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}
