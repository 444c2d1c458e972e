// Package netx holds the HTTP plumbing shared by the upload client and the
// development node.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	// maxErrorBody caps how much of a failed response is kept as the message.
	maxErrorBody = 4 << 10
	maxReplyBody = 1 << 20
)

// StatusError means the server answered with a non-2xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with status %d: %s", e.Status, e.Message)
}

// NoResponseError means the request was sent but no response came back:
// connection refused, reset, timeout.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("no response received: %v", e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// Field is one plain form value.
type Field struct {
	Name  string
	Value string
}

// FilePart is the streamed file of a multipart form.
type FilePart struct {
	Field    string
	FileName string
	Size     int64
	Body     io.Reader
}

// ProgressFunc receives the number of file bytes handed to the connection.
type ProgressFunc func(sent int64)

// PostMultipart streams a multipart/form-data POST to url: file first, then
// fields in order. The body is produced while it is sent, so memory use does
// not depend on the file size. On success it returns the response body.
func PostMultipart(ctx context.Context, client *http.Client, url string, header http.Header,
	file FilePart, fields []Field, onProgress ProgressFunc) ([]byte, error) {

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	errc := make(chan error, 1)
	go func() {
		err := writeForm(mw, file, fields, onProgress)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
		errc <- err
	}()

	resp, err := client.Do(req)
	if err != nil {
		if werr := <-errc; werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
			return nil, fmt.Errorf("write form: %w", werr)
		}
		return nil, &NoResponseError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: readMessage(resp)}
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return nil, &NoResponseError{Err: err}
	}
	return reply, nil
}

func writeForm(mw *multipart.Writer, file FilePart, fields []Field, onProgress ProgressFunc) error {
	part, err := mw.CreateFormFile(file.Field, file.FileName)
	if err != nil {
		return err
	}

	var src io.Reader = file.Body
	if onProgress != nil {
		src = &progressReader{r: file.Body, fn: onProgress}
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}

	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func readMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}

type progressReader struct {
	r    io.Reader
	sent int64
	fn   ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent)
	}
	return n, err
}
