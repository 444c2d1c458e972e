package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/auth"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data string) Request {
	t.Helper()
	p := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return Request{
		FID:      strings.Repeat("a", 64),
		Owner:    "atl1owner",
		Path:     p,
		FileName: "doc.txt",
		FileSize: int64(len(data)),
		FileType: "text/plain",
	}
}

type progressLog struct {
	mu   sync.Mutex
	vals []int
}

func (p *progressLog) record(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vals = append(p.vals, v)
}

func (p *progressLog) values() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.vals...)
}

func fastOpts() Options {
	return Options{Attempts: 2, RetryDelay: 50 * time.Millisecond, Timeout: 5 * time.Second}
}

func TestHTTPUploader_Success(t *testing.T) {
	var fields map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		body, _ := io.ReadAll(f)
		fields = map[string]string{
			"file":     string(body),
			"fileId":   r.FormValue("fileId"),
			"fileName": r.FormValue("fileName"),
			"fileSize": r.FormValue("fileSize"),
			"fileType": r.FormValue("fileType"),
		}
		_, _ = w.Write([]byte(`{"stored":true}`))
	}))
	defer srv.Close()

	req := writeTemp(t, "hello world")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	u := NewHTTPUploader(srv.URL+"/", nil, fastOpts(), logging.Discard(), m)

	var progress progressLog
	res := u.Upload(context.Background(), req, progress.record)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "file uploaded successfully", res.Message)
	assert.JSONEq(t, `{"stored":true}`, string(res.Data))
	assert.Equal(t, map[string]string{
		"file":     "hello world",
		"fileId":   req.FID,
		"fileName": "doc.txt",
		"fileSize": "11",
		"fileType": "text/plain",
	}, fields)

	vals := progress.values()
	require.NotEmpty(t, vals)
	assert.Equal(t, 100, vals[len(vals)-1])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadResults.WithLabelValues("http", "success")))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.UploadedBytes))
}

func TestHTTPUploader_RetriesThenSoftFails(t *testing.T) {
	var (
		calls int32
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "disk full", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	opts := fastOpts()
	opts.Attempts = 3
	u := NewHTTPUploader(srv.URL, nil, opts, logging.Discard(), nil)

	var progress progressLog
	res := u.Upload(context.Background(), writeTemp(t, "payload"), progress.record)

	assert.False(t, res.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, strings.HasPrefix(res.Message, "upload failed. last error: "), res.Message)
	assert.Contains(t, res.Message, "507")
	assert.Contains(t, res.Message, "disk full")

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), opts.RetryDelay)
	}

	resets := 0
	for _, v := range progress.values() {
		if v == 0 {
			resets++
		}
	}
	assert.GreaterOrEqual(t, resets, 2, "progress is reset before each retry")
}

func TestHTTPUploader_SucceedsOnRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL, nil, fastOpts(), logging.Discard(), nil)
	res := u.Upload(context.Background(), writeTemp(t, "payload"), nil)

	assert.True(t, res.Success, res.Message)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPUploader_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	u := NewHTTPUploader(url, nil, fastOpts(), logging.Discard(), nil)
	res := u.Upload(context.Background(), writeTemp(t, "payload"), nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no response received")
}

func TestHTTPUploader_MissingSourceFile(t *testing.T) {
	u := NewHTTPUploader("http://127.0.0.1:1", nil, fastOpts(), logging.Discard(), nil)

	req := writeTemp(t, "x")
	req.Path = filepath.Join(t.TempDir(), "gone")
	res := u.Upload(context.Background(), req, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "open upload source")
}

func TestHTTPUploader_SendsScopedToken(t *testing.T) {
	secret := []byte("shared-secret")
	var claims *auth.Claims
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		token := strings.TrimPrefix(r.Header.Get("Authorization"), auth.BearerPrefix)
		c, err := auth.ParseUploadToken(token, secret)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		claims = c
	}))
	defer srv.Close()

	req := writeTemp(t, "payload")
	u := NewHTTPUploader(srv.URL, secret, fastOpts(), logging.Discard(), nil)
	res := u.Upload(context.Background(), req, nil)

	require.True(t, res.Success, res.Message)
	require.NotNil(t, claims)
	assert.Equal(t, req.Owner, claims.Subject)
	assert.Equal(t, req.FID, claims.FID)
}

func TestHTTPUploader_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := NewHTTPUploader(srv.URL, nil, fastOpts(), logging.Discard(), nil)
	res := u.Upload(ctx, writeTemp(t, "payload"), nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, context.Canceled.Error())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(0, 200))
	assert.Equal(t, 50, percent(100, 200))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 100, percent(250, 200))
	assert.Equal(t, 100, percent(0, 0))
}
