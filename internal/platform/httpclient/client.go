package httpclient

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/corvidlabs/crawlerd/internal/crawler"
)

const (
	// DefaultTimeout bounds a single request when a scan sets no explicit
	// per-request deadline.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 2 * 1024 * 1024
	// MaxRedirects caps how many redirects a single Fetch follows; one
	// more redirect response is not followed and comes back as an
	// HTTPError.
	MaxRedirects = 5
	// DefaultMinDelay and DefaultMaxDelay bound the random pre-fetch
	// sleep every request waits out before it's sent, to humanize
	// traffic instead of hammering a target at wire speed.
	DefaultMinDelay = 500 * time.Millisecond
	DefaultMaxDelay = 2 * time.Second
)

// Client is the HTTP fetcher a scan's workers share: it sends the calling
// worker's device headers, applies an optional rate limiter and a
// body-size ceiling, and is reused across every URL the scan fetches.
// Safe for concurrent use; one Client serves the whole worker pool.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
	rateLimiter <-chan time.Time
	minDelay    time.Duration
	maxDelay    time.Duration
}

// Config configures a Client.
type Config struct {
	// Timeout bounds an individual request when the caller's context
	// carries no earlier deadline.
	Timeout time.Duration
	// MaxBodySize caps the number of response bytes read (default 2MB).
	MaxBodySize int64
	// RateLimit, if positive, is the minimum spacing between requests
	// this client issues.
	RateLimit time.Duration
	// MinDelay and MaxDelay bound the random pre-fetch sleep applied to
	// every request (default 500ms-2s). Set both negative to disable.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// New builds a Client from cfg, applying defaults for zero fields.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.MinDelay == 0 && cfg.MaxDelay == 0 {
		cfg.MinDelay = DefaultMinDelay
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MinDelay < 0 || cfg.MaxDelay < 0 {
		cfg.MinDelay, cfg.MaxDelay = 0, 0
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}

	redirects := make([]string, 0, MaxRedirects)
	c := &Client{
		maxBodySize: cfg.MaxBodySize,
		minDelay:    cfg.MinDelay,
		maxDelay:    cfg.MaxDelay,
	}
	c.httpClient = &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = append(redirects, req.URL.String())
			if len(via) > MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	if cfg.RateLimit > 0 {
		c.rateLimiter = time.Tick(cfg.RateLimit)
	}
	return c
}

// politeDelay sleeps a random duration in [c.minDelay, c.maxDelay] to
// humanize request spacing, returning early if ctx is done first.
func (c *Client) politeDelay(ctx context.Context) error {
	if c.maxDelay <= 0 {
		return nil
	}
	delay := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetch retrieves rawURL presenting device's fingerprint, honoring ctx's
// deadline and cancellation, and returns the body (capped at
// maxBodySize), status, content type, and the chain of URLs visited
// along any redirects followed.
func (c *Client) Fetch(ctx context.Context, rawURL string, device crawler.Device) (*crawler.FetchResult, error) {
	if err := c.politeDelay(ctx); err != nil {
		return nil, err
	}

	if c.rateLimiter != nil {
		select {
		case <-c.rateLimiter:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var chain []string
	client := &http.Client{
		Timeout: c.httpClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			chain = append(chain, req.URL.String())
			if len(via) > MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", device.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", device.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("DNT", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &crawler.HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &crawler.FetchResult{
		Body:          body,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		RedirectChain: chain,
	}, nil
}
