// Package upstream fetches media bytes from the hosting platform's media servers.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
)

var (
	// ErrRedirectLoop is returned when the redirect chain exceeds the hop budget.
	ErrRedirectLoop = errors.New("too many redirects")

	// ErrNetwork is returned when the media host cannot be reached or does not answer in time.
	ErrNetwork = errors.New("upstream network error")
)

// StatusError is returned when the media host answers with an error status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// browserHeaders impersonate a desktop browser playing from the platform's own site.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
	"Referer":         "https://www.youtube.com/",
	"Origin":          "https://www.youtube.com",
	"Accept":          "*/*",
	"Accept-Encoding": "identity",
}

// ClientConfig holds configuration for the upstream client.
type ClientConfig struct {
	// Timeout bounds connecting, the TLS handshake and waiting for response headers.
	// The body itself is not bounded so long streams are not cut off.
	Timeout time.Duration
	// MaxRedirects is the hop budget for a single fetch.
	MaxRedirects int
	// MaxConnsPerHost bounds concurrent connections per media host; further
	// requests queue for a free connection.
	MaxConnsPerHost int
	// MaxIdleConns bounds the keep-alive pool.
	MaxIdleConns int
	// IdleConnTimeout closes pooled connections left unused this long.
	IdleConnTimeout time.Duration
}

// DefaultClientConfig returns the default configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:         20 * time.Second,
		MaxRedirects:    5,
		MaxConnsPerHost: 50,
		MaxIdleConns:    10,
		IdleConnTimeout: 60 * time.Second,
	}
}

// Client performs media GETs over a shared keep-alive connection pool.
type Client struct {
	httpClient   *http.Client
	maxRedirects int
}

// NewClient creates a Client with its own connection pool.
func NewClient(cfg ClientConfig) *Client {
	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		DisableCompression:    true,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			// Redirects are followed by Fetch so the hop budget is explicit.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: cfg.MaxRedirects,
	}
}

// Fetch GETs rawURL, following redirects up to the hop budget, and returns the
// first non-redirect success response. rangeHeader is forwarded verbatim when set.
// The caller must close the returned body. Cancelling ctx aborts the request,
// including a body that is still being read.
func (c *Client) Fetch(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse media URL: %w", err)
	}

	for hops := 0; ; hops++ {
		resp, err := c.get(ctx, current.String(), rangeHeader)
		if err != nil {
			return nil, err
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			if location != "" {
				resp.Body.Close()

				if hops >= c.maxRedirects {
					return nil, fmt.Errorf("%w: more than %d", ErrRedirectLoop, c.maxRedirects)
				}

				next, err := current.Parse(location)
				if err != nil {
					return nil, fmt.Errorf("parse redirect location: %w", err)
				}
				slog.Debug("following upstream redirect",
					"hop", hops+1,
					"status", resp.StatusCode,
				)
				metrics.UpstreamRedirectsTotal.Inc()
				current = next
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	}
}

func (c *Client) get(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}
