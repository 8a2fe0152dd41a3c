// Package httputil builds the HTTP client the feed pollers share.
package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// userAgent identifies the poller to feed operators.
const userAgent = "surfdash/1.0 (tide feed poller)"

type uaTransport struct {
	base http.RoundTripper
}

// RoundTrip sets the User-Agent on a clone; transports must not mutate the
// caller's request.
func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.base.RoundTrip(req)
}

// NewClient returns an HTTP client with standard timeout configuration and
// the poller's User-Agent.
func NewClient() *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: uaTransport{base: http.DefaultTransport},
	}
}
