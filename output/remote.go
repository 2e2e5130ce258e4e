package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/forensant/artemis/entry"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultRetries    = 5
	defaultMinBackoff = 1 * time.Second
	defaultMaxBackoff = 32 * time.Second
)

// ErrUploadRejected is returned when the remote server answers with a
// 4xx status; per spec §4.4 step 5 this is not retried.
var ErrUploadRejected = errors.New("output: remote rejected upload")

// ErrUploadFailed is returned after the retry budget is exhausted
// against repeated 5xx responses or transport errors.
var ErrUploadFailed = errors.New("output: remote upload failed after retries")

// RemoteWriter implements Writer by POSTing (or PUTting, if Method is
// set) a multipart/form-data body to a remote collection server, with
// a "collection-info" JSON part carrying metadata and a "collection"
// part carrying the (possibly compressed) body, per spec §6.
type RemoteWriter struct {
	URL     string
	Method  string // defaults to POST
	Client  *http.Client
	Retries int // defaults to defaultRetries

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewRemoteWriter builds a RemoteWriter against url with TLS
// verification controlled by verifyCert (spec §9/DESIGN.md: insecure
// mode exists for research use, never the default).
func NewRemoteWriter(url string, verifyCert bool) *RemoteWriter {
	client := &http.Client{Timeout: defaultTimeout}
	if !verifyCert {
		client.Transport = insecureTransport()
	}
	return &RemoteWriter{URL: url, Client: client, Retries: defaultRetries}
}

func (w *RemoteWriter) Write(meta entry.Metadata, artifactName, ext string, data []byte, compressed bool) error {
	info, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	retries := w.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	backoff := w.MinBackoff
	if backoff <= 0 {
		backoff = defaultMinBackoff
	}
	maxBackoff := w.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		body, contentType, err := buildMultipart(info, artifactName, ext, data)
		if err != nil {
			return err
		}
		status, err := w.attempt(method, body, contentType)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUploadRejected) {
			return err // 4xx: bail immediately, per spec §4.4 step 5
		}
		lastErr = err
		_ = status
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, lastErr)
	}
	return ErrUploadFailed
}

func (w *RemoteWriter) attempt(method string, body *bytes.Buffer, contentType string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.clientTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, w.URL, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return resp.StatusCode, ErrUploadRejected
	default:
		return resp.StatusCode, fmt.Errorf("remote status %d", resp.StatusCode)
	}
}

func (w *RemoteWriter) clientTimeout() time.Duration {
	if w.Client != nil && w.Client.Timeout > 0 {
		return w.Client.Timeout
	}
	return defaultTimeout
}

func buildMultipart(info []byte, artifactName, ext string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	infoPart, err := mw.CreateFormField("collection-info")
	if err != nil {
		return nil, "", err
	}
	if _, err := infoPart.Write(info); err != nil {
		return nil, "", err
	}

	dataPart, err := mw.CreateFormFile("collection", fmt.Sprintf("%s.%s", artifactName, ext))
	if err != nil {
		return nil, "", err
	}
	if _, err := dataPart.Write(data); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
