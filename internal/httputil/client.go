// Package httputil provides a hardened HTTP client, browser-like request
// helpers and filename/URL sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DesktopUserAgent is sent on all scraping and relay requests. Several
// platforms serve different markup (or nothing at all) to non-browser agents.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// NewStreamingClient is NewClient without an overall timeout. Relay
// responses can legitimately take longer than any fixed deadline; the
// caller bounds them through the request context instead.
func NewStreamingClient() *http.Client {
	c := NewClient()
	c.Timeout = 0
	return c
}

// Get performs a GET request with standard browser-like headers. Extra
// headers (e.g. a platform Referer) override the defaults.
func Get(ctx context.Context, client *http.Client, url string, extra map[string]string) (*http.Response, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", DesktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7")
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	return client.Do(req)
}

// GetBody performs a GET and reads the full body, enforcing a 2xx status
// and a 10MB size cap. Used for page and API scraping, never for media bytes.
func GetBody(ctx context.Context, client *http.Client, url string, extra map[string]string) ([]byte, error) {
	resp, err := Get(ctx, client, url, extra)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
