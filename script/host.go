package script

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/open2b/scriggo/native"

	"github.com/forensant/artemis/artlog"
	"github.com/forensant/artemis/fsreader"
	"github.com/forensant/artemis/nom"
)

// insecureTransport mirrors output.insecureTransport (unexported
// there); jsRequest needs the same skip-verify knob for scripts that
// set VerifySSL: false.
func insecureTransport() http.RoundTripper {
	return &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
}

// Host is the curated surface scripts call into (spec §4.5's "Host
// API (exhaustive categories)"). One Host is built per Runtime; it
// carries the logger console output is routed to and, for filter
// scripts, the records the filter is being asked to transform.
type Host struct {
	Log *artlog.Logger

	ctx context.Context

	// FilterArtifact/FilterInput/FilterOutput are set by RunFilter: the
	// script reads artemis.FilterInput() and FilterArtifact(), and
	// calls artemis.outputResults to set FilterOutput (spec §4.4 step
	// 2's filter-script contract, and §4.5's `outputResults`).
	FilterArtifact string
	FilterInput    []interface{}
	FilterOutput   []interface{}
}

// NewHost builds a Host. A nil logger discards console output.
func NewHost(lg *artlog.Logger) *Host {
	if lg == nil {
		lg = artlog.NewDiscard()
	}
	return &Host{Log: lg, ctx: context.Background()}
}

// scriptError mirrors spec §4.5: "Errors are propagated to JS as
// Error objects with a stable name ... so scripts can branch on
// failure class." Scriggo surfaces a returned Go error as a panic
// inside the script's error-handling constructs, so the name is
// carried in the error text rather than a distinct wrapper type.
type scriptError struct {
	kind string
	err  error
}

func (e *scriptError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *scriptError) Unwrap() error { return e.err }

func fileError(err error) error  { return &scriptError{kind: "FileError", err: err} }
func deadlineError() error       { return &scriptError{kind: "Deadline", err: ErrDeadline} }

func (h *Host) checkDeadline() error {
	if h.ctx != nil && h.ctx.Err() != nil {
		return deadlineError()
	}
	return nil
}

// --- Filesystem ---

func (h *Host) readDir(path string) ([]string, error) {
	if err := h.checkDeadline(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fileError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (h *Host) stat(path string) (fsreader.Metadata, error) {
	if err := h.checkDeadline(); err != nil {
		return fsreader.Metadata{}, err
	}
	md, err := fsreader.StatMetadata(path)
	if err != nil {
		return fsreader.Metadata{}, fileError(err)
	}
	return md, nil
}

func (h *Host) hash(path string) (fsreader.Hashes, error) {
	if err := h.checkDeadline(); err != nil {
		return fsreader.Hashes{}, err
	}
	fr, err := fsreader.Open(path)
	if err != nil {
		return fsreader.Hashes{}, fileError(err)
	}
	defer fr.Close()
	hs, err := fsreader.HashFile(fr)
	if err != nil {
		return fsreader.Hashes{}, fileError(err)
	}
	return hs, nil
}

func (h *Host) readFile(path string) ([]byte, error) {
	if err := h.checkDeadline(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(err)
	}
	return b, nil
}

func (h *Host) readTextFile(path string) (string, error) {
	b, err := h.readFile(path)
	if err != nil {
		return "", err
	}
	return nom.UTF8Lossy(b), nil
}

func (h *Host) glob(root, pattern string) ([]string, error) {
	if err := h.checkDeadline(); err != nil {
		return nil, err
	}
	matches, err := fsreader.Glob(root, pattern)
	if err != nil {
		return nil, fileError(err)
	}
	return matches, nil
}

// --- Encoding ---

func (h *Host) base64Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func (h *Host) base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &scriptError{kind: "EncodingError", err: err}
	}
	return b, nil
}

func (h *Host) extractUtf8String(b []byte) string  { return nom.UTF8Lossy(b) }
func (h *Host) extractUtf16String(b []byte) string { return nom.UTF16LE(b) }

// --- Nom helpers ---

func (h *Host) nomUnsignedTwoBytes(b []byte, bigEndian bool) (uint16, error) {
	_, v, err := nom.Uint16(b, endianOf(bigEndian))
	return v, wrapNom(err)
}
func (h *Host) nomUnsignedFourBytes(b []byte, bigEndian bool) (uint32, error) {
	_, v, err := nom.Uint32(b, endianOf(bigEndian))
	return v, wrapNom(err)
}
func (h *Host) nomUnsignedEightBytes(b []byte, bigEndian bool) (uint64, error) {
	_, v, err := nom.Uint64(b, endianOf(bigEndian))
	return v, wrapNom(err)
}
func (h *Host) nomUnsignedSixteenBytes(b []byte) ([]byte, error) {
	_, v, err := nom.Uint128(b)
	return v, wrapNom(err)
}
func (h *Host) nomSignedTwoBytes(b []byte, bigEndian bool) (int16, error) {
	_, v, err := nom.Int16(b, endianOf(bigEndian))
	return v, wrapNom(err)
}
func (h *Host) nomSignedFourBytes(b []byte, bigEndian bool) (int32, error) {
	_, v, err := nom.Int32(b, endianOf(bigEndian))
	return v, wrapNom(err)
}
func (h *Host) nomSignedEightBytes(b []byte, bigEndian bool) (int64, error) {
	_, v, err := nom.Int64(b, endianOf(bigEndian))
	return v, wrapNom(err)
}

func (h *Host) nomTakeUntilBytes(b []byte, marker []byte) ([]byte, []byte, error) {
	idx := strings.Index(string(b), string(marker))
	if idx < 0 {
		return nil, nil, wrapNom(nom.ErrInsufficientData)
	}
	return b[:idx], b[idx+len(marker):], nil
}

func (h *Host) nomTakeUntilString(s, marker string) (string, string, error) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", "", wrapNom(nom.ErrInsufficientData)
	}
	return s[:idx], s[idx+len(marker):], nil
}

func endianOf(bigEndian bool) nom.Endian {
	if bigEndian {
		return nom.BigEndian
	}
	return nom.LittleEndian
}

func wrapNom(err error) error {
	if err == nil {
		return nil
	}
	return &scriptError{kind: "ParseError", err: err}
}

// --- Time ---

func (h *Host) timeNow() int64 { return time.Now().Unix() }

func (h *Host) filetimeToUnixepoch(ft uint64) int64 { return nom.FiletimeToUnix(ft) }

func (h *Host) cocoatimeToUnixepoch(f float64) int64 { return nom.CocoaToUnix(f) }

func (h *Host) webkitTimeToUnixepoch(v int64) int64 { return nom.WebKitToUnix(v) }

func (h *Host) unixepochToIso(v int64) string {
	return time.Unix(v, 0).UTC().Format("2006-01-02T15:04:05.000Z")
}

// --- HTTP ---

// JSRequestOptions mirrors the object literal scripts pass to
// jsRequest (spec §4.5).
type JSRequestOptions struct {
	URL             string
	Protocol        string
	Headers         map[string]string
	FollowRedirects bool
	VerifySSL       bool
}

// JSResponse is jsRequest's return value.
type JSResponse struct {
	URL           string
	Status        int
	Headers       map[string]string
	ContentLength int64
	Body          []byte
}

func (h *Host) jsRequest(opts JSRequestOptions, body []byte) (JSResponse, error) {
	if err := h.checkDeadline(); err != nil {
		return JSResponse{}, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	if !opts.VerifySSL {
		client.Transport = insecureTransport()
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	req, err := http.NewRequestWithContext(h.ctx, methodFor(body), opts.URL, strings.NewReader(string(body)))
	if err != nil {
		return JSResponse{}, &scriptError{kind: "HTTPError", err: err}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return JSResponse{}, &scriptError{kind: "HTTPError", err: err}
	}
	defer resp.Body.Close()

	respBody := make([]byte, 0, 4096)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			respBody = append(respBody, buf[:n]...)
		}
		if rerr != nil {
			break
		}
	}

	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return JSResponse{
		URL:           opts.URL,
		Status:        resp.StatusCode,
		Headers:       headers,
		ContentLength: resp.ContentLength,
		Body:          respBody,
	}, nil
}

func methodFor(body []byte) string {
	if len(body) == 0 {
		return http.MethodGet
	}
	return http.MethodPost
}

// --- Output ---

// outputResults is §4.5's "pushes a constructed envelope into §4.4".
// It records data as the replacement records value (FilterOutput),
// for a filter invocation and a standalone `--javascript` run alike;
// dataName is only logged and outputJSONString is not used.
func (h *Host) outputResults(data []interface{}, dataName string, outputJSONString bool) {
	h.FilterOutput = data
	if h.Log != nil {
		h.Log.Debugf("script outputResults: %d records for %q", len(data), dataName)
	}
}

func (h *Host) filterArtifactName() string     { return h.FilterArtifact }
func (h *Host) filterInput() []interface{}     { return h.FilterInput }

func (h *Host) console(msg string) {
	if h.Log != nil {
		h.Log.Infof("script: %s", msg)
	}
}

// declarations builds the native.Declarations map scriggo.Build uses
// to resolve `import "artemis"` inside user scripts.
func (h *Host) declarations() native.Declarations {
	return native.Declarations{
		"ReadDir":               h.readDir,
		"Stat":                  h.stat,
		"Hash":                  h.hash,
		"ReadTextFile":          h.readTextFile,
		"ReadFile":              h.readFile,
		"Glob":                  h.glob,
		"Base64Encode":          h.base64Encode,
		"Base64Decode":          h.base64Decode,
		"ExtractUtf8String":     h.extractUtf8String,
		"ExtractUtf16String":    h.extractUtf16String,
		"NomUnsignedTwoBytes":   h.nomUnsignedTwoBytes,
		"NomUnsignedFourBytes":  h.nomUnsignedFourBytes,
		"NomUnsignedEightBytes": h.nomUnsignedEightBytes,
		"NomUnsignedSixteenBytes": h.nomUnsignedSixteenBytes,
		"NomSignedTwoBytes":     h.nomSignedTwoBytes,
		"NomSignedFourBytes":    h.nomSignedFourBytes,
		"NomSignedEightBytes":   h.nomSignedEightBytes,
		"NomTakeUntilBytes":     h.nomTakeUntilBytes,
		"NomTakeUntilString":    h.nomTakeUntilString,
		"TimeNow":               h.timeNow,
		"FiletimeToUnixepoch":   h.filetimeToUnixepoch,
		"CocoatimeToUnixepoch":  h.cocoatimeToUnixepoch,
		"WebkitTimeToUnixepoch": h.webkitTimeToUnixepoch,
		"UnixepochToIso":        h.unixepochToIso,
		"JSRequest":             h.jsRequest,
		"OutputResults":         h.outputResults,
		"FilterArtifactName":    h.filterArtifactName,
		"FilterInput":           h.filterInput,
		"Console":               h.console,
	}
}
