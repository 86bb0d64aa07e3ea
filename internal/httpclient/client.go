// Package httpclient builds the shared, pooled HTTP client and per-unit
// requests. One client is handed by reference to every worker; workers only
// invoke it and never mutate it.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pummelapp/pummel/internal/config"
)

// RequestBuilder assembles one HTTP request per work unit from immutable
// configuration. Safe for concurrent use.
type RequestBuilder struct {
	method  config.Method
	target  string
	body    string
	headers http.Header
}

// NewRequestBuilder validates the target and headers once, up front. The
// method must already be resolved via config.ParseMethod.
func NewRequestBuilder(cfg *config.Config, method config.Method) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		// Set, not Add: a later duplicate overwrites an earlier one.
		headers.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		method:  method,
		target:  target,
		body:    cfg.Body,
		headers: headers,
	}, nil
}

// Build creates a new request carrying the configured method, body, and
// headers, bound to ctx.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if b.body != "" {
		reader = strings.NewReader(b.body)
	}

	req, err := http.NewRequestWithContext(ctx, string(b.method), b.target, reader)
	if err != nil {
		return nil, err
	}

	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Set(key, val)
		}
	}

	if b.body != "" {
		req.ContentLength = int64(len(b.body))
		body := b.body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		}
	}

	return req, nil
}

// NewClient returns the shared HTTP client with a tuned, reentrant-safe
// transport. The timeout bounds each call end to end.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
