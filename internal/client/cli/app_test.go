package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/config"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/ledger"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/storage"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	enqueued []string
	opts     []storage.FileOptions
	entries  []storage.Entry
	meta     map[string]map[string]string
	removed  []string
	cleared  bool

	uploadDir    string
	uploadReport *storage.UploadReport
	uploadErr    error
}

func (f *fakeQueue) Enqueue(_ context.Context, path string, opts storage.FileOptions) (*storage.Entry, error) {
	if strings.Contains(path, "missing") {
		return nil, os.ErrNotExist
	}
	f.enqueued = append(f.enqueued, path)
	f.opts = append(f.opts, opts)
	return &storage.Entry{Source: storage.Source{Name: filepath.Base(path), Size: 2048}}, nil
}

func (f *fakeQueue) List() []storage.Entry { return f.entries }

func (f *fakeQueue) UpdateMetadata(name string, partial map[string]string) error {
	if f.meta == nil {
		f.meta = map[string]map[string]string{}
	}
	f.meta[name] = partial
	return nil
}

func (f *fakeQueue) Remove(name string) error {
	if name == "ghost.txt" {
		return storage.ErrNotQueued
	}
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeQueue) Clear() { f.cleared = true }

func (f *fakeQueue) Upload(_ context.Context, dir string) (*storage.UploadReport, error) {
	f.uploadDir = dir
	return f.uploadReport, f.uploadErr
}

func (f *fakeQueue) Subscribe(int) (<-chan storage.Event, func()) {
	ch := make(chan storage.Event)
	return ch, func() {}
}

type fakeReceipts struct {
	list []*models.Receipt
	err  error
}

func (f *fakeReceipts) Save(context.Context, *models.Receipt) error { return nil }
func (f *fakeReceipts) GetByFID(context.Context, string) (*models.Receipt, error) {
	return nil, common.ErrorNotFound
}
func (f *fakeReceipts) List(context.Context) ([]*models.Receipt, error) { return f.list, f.err }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestApp(q *fakeQueue, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		config:     &config.Config{},
		queue:      q,
		receipts:   &fakeReceipts{},
		ledger:     &fakePinger{},
		address:    "atl1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu",
		walletKind: config.WalletMnemonic,
		reader:     bufio.NewReader(strings.NewReader(input)),
		out:        &out,
		log:        logging.Discard(),
	}, &out
}

func TestAdd_ParsesFlagsAndPaths(t *testing.T) {
	q := &fakeQueue{}
	a, out := newTestApp(q, "")

	require.NoError(t, a.Add(context.Background(), []string{"-e", "a.txt", "-r", "5", "dir/b.txt"}))

	assert.Equal(t, []string{"a.txt", "dir/b.txt"}, q.enqueued)
	for _, o := range q.opts {
		assert.True(t, o.Encrypt)
		assert.Equal(t, 5, o.Replicas)
	}
	assert.Contains(t, out.String(), "queued b.txt (2.0 KiB)")
}

func TestAdd_Errors(t *testing.T) {
	q := &fakeQueue{}
	a, _ := newTestApp(q, "")

	require.ErrorIs(t, a.Add(context.Background(), nil), errUsage)
	require.ErrorIs(t, a.Add(context.Background(), []string{"-r", "many", "a.txt"}), errUsage)

	err := a.Add(context.Background(), []string{"missing.txt", "ok.txt"})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []string{"ok.txt"}, q.enqueued)
}

func TestList_PrintsEntries(t *testing.T) {
	q := &fakeQueue{entries: []storage.Entry{
		{Source: storage.Source{Name: "a.txt"}, Status: storage.StatusReady, Size: 1536, FID: strings.Repeat("ab", 32)},
		{Source: storage.Source{Name: "b.txt"}, Status: storage.StatusError, Error: "wallet not connected"},
		{Source: storage.Source{Name: "c.txt"}, Status: storage.StatusReady, TxHash: "ABCDEF"},
	}}
	a, out := newTestApp(q, "")

	require.NoError(t, a.List(context.Background()))

	got := out.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "1.5 KiB")
	assert.Contains(t, got, "abababababab…")
	assert.Contains(t, got, "error: wallet not connected")
	assert.Contains(t, got, "ready (registered)")
	assert.Equal(t, 1, strings.Count(got, "registered"))
}

func TestList_Empty(t *testing.T) {
	a, out := newTestApp(&fakeQueue{}, "")
	require.NoError(t, a.List(context.Background()))
	assert.Equal(t, "queue is empty\n", out.String())
}

func TestMeta_InlineAndInteractive(t *testing.T) {
	q := &fakeQueue{}
	a, _ := newTestApp(q, "album=2024\n\n")

	require.NoError(t, a.Meta(context.Background(), []string{"a.txt", "tag=x"}))
	assert.Equal(t, map[string]string{"tag": "x"}, q.meta["a.txt"])

	require.NoError(t, a.Meta(context.Background(), []string{"b.txt"}))
	assert.Equal(t, map[string]string{"album": "2024"}, q.meta["b.txt"])

	require.ErrorIs(t, a.Meta(context.Background(), []string{"a.txt", "broken"}), common.ErrorIncorrectMetadata)
	require.ErrorIs(t, a.Meta(context.Background(), nil), errUsage)
}

func TestRemoveAndClear(t *testing.T) {
	q := &fakeQueue{}
	a, _ := newTestApp(q, "")

	err := a.Remove(context.Background(), []string{"a.txt", "ghost.txt"})
	require.ErrorIs(t, err, storage.ErrNotQueued)
	assert.Equal(t, []string{"a.txt"}, q.removed)

	require.NoError(t, a.Clear(context.Background()))
	assert.True(t, q.cleared)
}

func TestUpload_PrintsReport(t *testing.T) {
	q := &fakeQueue{uploadReport: &storage.UploadReport{
		TxHash:   "ABC",
		Height:   7,
		Uploaded: []models.Receipt{{Name: "a.txt", Path: "docs/f1", Size: 10}},
		Failed:   []storage.FailedUpload{{Name: "b.txt", Message: "upload failed. last error: 507"}},
	}}
	a, out := newTestApp(q, "")

	require.NoError(t, a.Upload(context.Background(), []string{"docs"}))
	assert.Equal(t, "docs", q.uploadDir)

	got := out.String()
	assert.Contains(t, got, "transaction ABC included at height 7")
	assert.Contains(t, got, "uploaded a.txt -> docs/f1")
	assert.Contains(t, got, "failed   b.txt: upload failed. last error: 507 (still queued)")
}

func TestUpload_Errors(t *testing.T) {
	q := &fakeQueue{uploadErr: &ledger.TxError{Hash: "ABC", Code: 18, RawLog: "duplicate"}}
	a, _ := newTestApp(q, "")

	err := a.Upload(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 18")
	assert.Equal(t, "", q.uploadDir)

	q.uploadErr = storage.ErrQueueEmpty
	require.ErrorIs(t, a.Upload(context.Background(), nil), storage.ErrQueueEmpty)

	require.ErrorIs(t, a.Upload(context.Background(), []string{"a", "b"}), errUsage)
}

func TestReceipts(t *testing.T) {
	a, out := newTestApp(&fakeQueue{}, "")
	require.NoError(t, a.Receipts(context.Background()))
	assert.Equal(t, "no uploads yet\n", out.String())

	out.Reset()
	a.receipts = &fakeReceipts{list: []*models.Receipt{{Name: "a.txt", Path: "home/f1", Size: 1 << 20, TxHash: "ABC", UploadedAt: time.Now()}}}
	require.NoError(t, a.Receipts(context.Background()))
	assert.Contains(t, out.String(), "home/f1")
	assert.Contains(t, out.String(), "1.0 MiB")

	a.receipts = &fakeReceipts{err: errors.New("db locked")}
	require.Error(t, a.Receipts(context.Background()))
}

func TestStatus_ReportsModeAndCounts(t *testing.T) {
	q := &fakeQueue{entries: []storage.Entry{
		{Status: storage.StatusReady}, {Status: storage.StatusMerkling}, {Status: storage.StatusError},
	}}
	a, out := newTestApp(q, "")

	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "ledger:  online")
	assert.Contains(t, out.String(), "3 files, 1 ready, 1 processing, 1 failed")

	a.ledger = &fakePinger{err: ledger.ErrUnavailable}
	out.Reset()
	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "ledger:  offline")
	assert.Equal(t, "(atl1qypqxp…v7xu offline)", a.getStatus())
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "[a] encrypted, 1.0 KiB to upload", formatEvent(storage.Event{Kind: storage.EventEncrypted, Name: "a", FileSize: 1024}))
	assert.Equal(t, "[a] ready", formatEvent(storage.Event{Kind: storage.EventReady, Name: "a"}))
	assert.Equal(t, "[a] failed: boom", formatEvent(storage.Event{Kind: storage.EventError, Name: "a", Message: "boom"}))
	assert.Equal(t, "[a] upload 50%", formatEvent(storage.Event{Kind: storage.EventProgress, Name: "a", Percent: 50}))
	assert.Equal(t, "", formatEvent(storage.Event{Kind: storage.EventProgress, Name: "a", Percent: 37}))
}
