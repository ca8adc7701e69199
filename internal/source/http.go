package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second
	// MaxRetries is how many times a throttled request is retried.
	MaxRetries = 3
	// InitialBackoff is the first wait between retries; it doubles each time.
	InitialBackoff = 500 * time.Millisecond
	// maxRetryAfter caps a server-supplied Retry-After.
	maxRetryAfter = 30 * time.Second
)

// Error types for remote sources
type (
	// AuthenticationError indicates the server rejected our credentials
	AuthenticationError struct{ Message string }
	// StatusError indicates any other non-success response
	StatusError struct {
		StatusCode int
		URL        string
	}
)

func (e AuthenticationError) Error() string { return e.Message }

func (e StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// TokenFunc returns the bearer token for host, or "" for anonymous access.
type TokenFunc func(ctx context.Context, host string) (string, error)

// HTTP fetches CSV files over http and https.
type HTTP struct {
	httpClient *http.Client
	token      TokenFunc
	retries    int
	backoff    time.Duration
}

// HTTPOption configures an HTTP source
type HTTPOption func(*HTTP)

// WithClient replaces the default HTTP client
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.httpClient = c
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.httpClient.Timeout = timeout
	}
}

// WithTokenFunc sets where bearer tokens come from
func WithTokenFunc(fn TokenFunc) HTTPOption {
	return func(h *HTTP) {
		h.token = fn
	}
}

// WithRetries sets how often 429 and 503 responses are retried and the
// initial backoff between attempts
func WithRetries(retries int, backoff time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.retries = max(retries, 0)
		h.backoff = backoff
	}
}

// NewHTTP creates an HTTP source
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retries:    MaxRetries,
		backoff:    InitialBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Stat(ctx context.Context, location string) (Info, error) {
	info := Info{Location: location, Path: location}

	resp, err := h.do(ctx, http.MethodHead, location)
	if err != nil {
		return info, err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = h.do(ctx, http.MethodGet, location)
		if err != nil {
			return info, err
		}
		resp.Body.Close()
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return info, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		info.Exists = true
		if resp.ContentLength > 0 {
			info.Size = resp.ContentLength
		}
		if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
			info.ModTime = t
		}
		return info, nil
	default:
		return info, statusError(resp, location)
	}
}

func (h *HTTP) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	resp, err := h.do(ctx, http.MethodGet, location)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, statusError(resp, location)
	}
	return resp.Body, nil
}

// do sends one request, retrying while the server answers 429 or 503.
func (h *HTTP) do(ctx context.Context, method, location string) (*http.Response, error) {
	backoff := h.backoff
	for attempt := 0; ; attempt++ {
		resp, err := h.send(ctx, method, location)
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= h.retries {
			return resp, nil
		}

		wait := retryAfter(resp, backoff)
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

func (h *HTTP) send(ctx context.Context, method, location string) (*http.Response, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", location, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	if h.token != nil {
		token, err := h.token(ctx, u.Hostname())
		if err != nil {
			return nil, fmt.Errorf("failed to get token for %s: %w", u.Hostname(), err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter honours a Retry-After header given in seconds, else returns
// fallback.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return fallback
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

func statusError(resp *http.Response, location string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return AuthenticationError{Message: fmt.Sprintf("%s: invalid or missing token", location)}
	case http.StatusForbidden:
		return AuthenticationError{Message: fmt.Sprintf("%s: access denied", location)}
	default:
		return StatusError{StatusCode: resp.StatusCode, URL: location}
	}
}

var _ Opener = (*HTTP)(nil)
