
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"cron-shell/pkg/logger"
)

// DefaultUserAgent identifies live fetches unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (compatible; OpenClawCronShell/0.1)"

// FetchError reports a failed live fetch. The run is not retried.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs a single live request and returns the page body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	log       *logger.Logger
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, userAgent string) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: userAgent,
		log:       logger.NewNop(),
	}
}

// WithLogger sets the logger used to report truncated bodies.
func (h *HTTPClient) WithLogger(l *logger.Logger) *HTTPClient {
	if l != nil {
		h.log = l
	}
	return h
}

// Fetch GETs rawURL following redirects. Any status >= 400 is an error.
// The body is decoded to UTF-8 using the declared or sniffed charset and is
// cut at the size cap, with a warning, when longer.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("invalid url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, h.sizeCap+1))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(raw)) > h.sizeCap {
		raw = raw[:h.sizeCap]
		h.log.Warnf("body of %s truncated at %d bytes", rawURL, h.sizeCap)
	}

	r, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	return string(b), nil
}
