package output

import (
	"crypto/tls"
	"net/http"
)

// insecureTransport builds an http.RoundTripper that skips remote
// certificate verification, for the research-use "insecure_skip_tls"
// output target option (never the default -- spec §9 / DESIGN.md).
func insecureTransport() http.RoundTripper {
	return &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
}
