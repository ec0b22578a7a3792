package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEndpoint is the Jina Reader API endpoint. The target URL is
// appended to it verbatim.
const DefaultEndpoint = "https://r.jina.ai/"

// ConversionError reports a failed conversion for one page.
// A single page's ConversionError never aborts the run; the page is
// skipped from output and the failure is reported.
type ConversionError struct {
	// URL is the page whose conversion failed.
	URL string

	// StatusCode is the HTTP status from the conversion service, or 0
	// when the request never completed.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("convert %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("convert %s: status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// JinaClient converts pages to Markdown through the Jina Reader API.
type JinaClient struct {
	// client is the HTTP client used for conversion requests.
	client *http.Client

	// endpoint is the Reader API base. Overridable for tests.
	endpoint string

	// apiKey is the Bearer credential. Optional: the Reader API serves
	// unauthenticated requests at a lower rate limit.
	apiKey string

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the number of response bytes read per page.
	maxBodySize int64
}

// JinaOption configures a JinaClient.
type JinaOption func(*JinaClient)

// WithEndpoint overrides the Reader API endpoint.
func WithEndpoint(endpoint string) JinaOption {
	return func(c *JinaClient) {
		c.endpoint = endpoint
	}
}

// WithAPIKey sets the Bearer credential sent with every request.
func WithAPIKey(key string) JinaOption {
	return func(c *JinaClient) {
		c.apiKey = key
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) JinaOption {
	return func(c *JinaClient) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) JinaOption {
	return func(c *JinaClient) {
		c.maxBodySize = size
	}
}

// NewJinaClient creates a JinaClient using the given HTTP client.
// The client carries the timeout policy.
func NewJinaClient(client *http.Client, opts ...JinaOption) *JinaClient {
	c := &JinaClient{
		client:      client,
		endpoint:    DefaultEndpoint,
		userAgent:   "mdmirror/1.0 (+https://github.com/mdmirror/mdmirror)",
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.endpoint, "/") {
		c.endpoint += "/"
	}
	return c
}

// Convert fetches the Markdown rendition of pageURL.
// The Reader API expects the full target URL appended to the endpoint.
func (c *JinaClient) Convert(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+pageURL, nil)
	if err != nil {
		return "", &ConversionError{URL: pageURL, Err: err}
	}

	req.Header.Set("Accept", "text/markdown; charset=utf-8")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ConversionError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ConversionError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", &ConversionError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	return string(body), nil
}
