package transport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/auth"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
	"github.com/dmitrijs2005/atlaskeeper/internal/netx"
)

const tokenValidity = 15 * time.Minute

// HTTPUploader posts files as multipart forms to {endpoint}/upload.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
	secret   []byte
	opts     Options
	log      logging.Logger
	metrics  *metrics.Metrics
}

// NewHTTPUploader returns an uploader for endpoint. When secret is non-empty
// every request carries a bearer token scoped to the file being sent.
func NewHTTPUploader(endpoint string, secret []byte, opts Options, log logging.Logger, m *metrics.Metrics) *HTTPUploader {
	opts = opts.withDefaults()
	return &HTTPUploader{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: opts.Timeout},
		secret:   secret,
		opts:     opts,
		log:      log.With("module", "transport"),
		metrics:  m,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, req Request, onProgress ProgressFunc) Result {
	return runWithRetries(ctx, u.opts, "http", req, u.log, u.metrics, onProgress, func(ctx context.Context) ([]byte, error) {
		return u.post(ctx, req, onProgress)
	})
}

func (u *HTTPUploader) post(ctx context.Context, req Request, onProgress ProgressFunc) ([]byte, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	header := http.Header{}
	if len(u.secret) > 0 {
		token, err := auth.GenerateUploadToken(req.Owner, req.FID, u.secret, tokenValidity)
		if err != nil {
			return nil, fmt.Errorf("sign upload token: %w", err)
		}
		header.Set(common.AuthorizationHeaderName, auth.BearerPrefix+token)
	}

	var progress netx.ProgressFunc
	if onProgress != nil {
		progress = func(sent int64) { onProgress(percent(sent, req.FileSize)) }
	}

	return netx.PostMultipart(ctx, u.client, u.endpoint+"/upload", header,
		netx.FilePart{Field: "file", FileName: req.FileName, Size: req.FileSize, Body: f},
		[]netx.Field{
			{Name: "fileId", Value: req.FID},
			{Name: "fileName", Value: req.FileName},
			{Name: "fileSize", Value: strconv.FormatInt(req.FileSize, 10)},
			{Name: "fileType", Value: req.FileType},
		},
		progress,
	)
}
