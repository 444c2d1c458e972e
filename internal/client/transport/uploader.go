// Package transport delivers prepared files to the storage network.
//
// Uploaders never fail hard: every outcome, including exhausted retries and
// cancellation, comes back as a Result so a batch can carry on with the
// next file.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultAttempts   = 2
	DefaultRetryDelay = 3 * time.Second
	DefaultTimeout    = 30 * time.Second
)

// Request describes one file to deliver. Path is the content actually sent,
// which is the encrypted spool copy when the file was encrypted.
type Request struct {
	FID      string
	Owner    string
	Path     string
	FileName string
	FileSize int64
	FileType string
}

// Result is the outcome of an upload. Data carries the endpoint's reply on
// success.
type Result struct {
	Success bool
	Message string
	Data    []byte
}

// ProgressFunc receives the integer percentage of the file sent so far.
// It is reset to 0 before every retry.
type ProgressFunc func(percent int)

// Uploader is implemented by every sink.
type Uploader interface {
	Upload(ctx context.Context, req Request, onProgress ProgressFunc) Result
}

// Options tune the retry loop shared by all sinks.
type Options struct {
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Attempts < 1 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// attemptFunc performs a single delivery. A nil error is success.
type attemptFunc func(ctx context.Context) ([]byte, error)

// runWithRetries calls attempt up to opts.Attempts times with a constant
// delay in between and turns the final error into a soft failure.
func runWithRetries(ctx context.Context, opts Options, sink string, req Request,
	log logging.Logger, m *metrics.Metrics, onProgress ProgressFunc, attempt attemptFunc) Result {

	var (
		n       int
		reply   []byte
		lastErr error
	)

	backoff := retry.WithMaxRetries(uint64(opts.Attempts-1), retry.NewConstant(opts.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n++
		if n > 1 && onProgress != nil {
			onProgress(0)
		}
		log.Info(ctx, "upload attempt", "sink", sink, "fid", req.FID, "file", req.FileName, "attempt", n)
		m.UploadAttempt(sink)

		data, err := attempt(ctx)
		if err != nil {
			lastErr = err
			log.Warn(ctx, "upload attempt failed", "sink", sink, "fid", req.FID, "attempt", n, "error", err)
			return retry.RetryableError(err)
		}
		reply = data
		return nil
	})

	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		m.UploadResult(sink, false, req.FileSize)
		return Result{Success: false, Message: fmt.Sprintf("upload failed. last error: %v", lastErr)}
	}

	log.Info(ctx, "upload succeeded", "sink", sink, "fid", req.FID, "attempt", n)
	m.UploadResult(sink, true, req.FileSize)
	return Result{Success: true, Message: "file uploaded successfully", Data: reply}
}

func percent(sent, total int64) int {
	if total <= 0 {
		return 100
	}
	p := (sent*100 + total/2) / total
	return int(min(p, 100))
}
