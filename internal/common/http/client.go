// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "knowledge-workers/internal/common/errors"
)

const defaultMaxBody = 5 << 20

// Page is a fetched document.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the server labelled the body as JSON.
func (p *Page) IsJSON() bool {
	return strings.Contains(strings.ToLower(p.ContentType), "json")
}

// Client performs bounded GET requests with a fixed user agent and maps
// failures onto upstream error codes.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithTransport swaps the underlying round tripper, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    defaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// Get fetches rawURL on behalf of source. Transport errors and non-2xx
// statuses become UPSTREAM_UNAVAILABLE, deadlines become UPSTREAM_TIMEOUT.
func (c *Client) Get(ctx context.Context, source, rawURL string) (*Page, error) {
	return c.GetWithHeaders(ctx, source, rawURL, nil)
}

func (c *Client) GetWithHeaders(ctx context.Context, source, rawURL string, headers map[string]string) (*Page, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("bad url %q: %v", rawURL, err))
	}
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.6")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewUpstreamTimeoutError(source, rawURL, err)
		}
		return nil, apperrors.NewUpstreamUnavailableError(source, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewUpstreamUnavailableError(source, rawURL,
			fmt.Errorf("unexpected status %d", resp.StatusCode)).
			WithMetadata("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewUpstreamTimeoutError(source, rawURL, err)
		}
		return nil, apperrors.NewUpstreamUnavailableError(source, rawURL, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, apperrors.NewUnparseableContentError(source,
			fmt.Sprintf("body of %s exceeds %d bytes", rawURL, c.maxBody)).
			WithMetadata("url", rawURL)
	}

	return &Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
