package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Fetcher retrieves one page and returns its raw content.
// Errors are transport-level only: network failures and non-success
// status codes. Content interpretation belongs to the parse package.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Client is the production Fetcher. It sends the session cookie bundle
// and browser-like headers with every request.
type Client struct {
	httpClient  *http.Client
	cookies     []*http.Cookie
	userAgent   string
	referer     string
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxBodySize caps the response body bytes read per page.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithReferer sets the Referer header sent with every request.
// The catalog rejects some deep links without one.
func WithReferer(ref string) Option {
	return func(c *Client) {
		c.referer = ref
	}
}

// NewClient creates a Client carrying the given cookie pairs.
// Redirects are followed; cookies are re-sent on every request rather
// than jar-managed because the bundle is static session material loaded
// once per process.
func NewClient(cookies map[string]string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxBodySize: 5 * 1024 * 1024,
	}

	// Stable order keeps request headers reproducible across runs.
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.cookies = append(c.cookies, &http.Cookie{Name: name, Value: cookies[name]})
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves pageURL and returns the response body.
// A non-2xx status is an error: the catalog answers listing requests
// with 200 even for empty result sets, so anything else means the
// session is rejected or the page is gone.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", pageURL, err)
	}
	return body, nil
}
