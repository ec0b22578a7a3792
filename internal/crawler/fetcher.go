package crawler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/mdmirror/mdmirror/internal/model"
)

// FetchAndExtract is the collaborator the Discoverer uses to turn a URL
// into the anchors found on that page. Implementations return a
// *FetchError when the page cannot be fetched or parsed.
//
// Design decision: The traversal depends on this interface rather than on
// HTTPFetcher directly so tests can script anchor sequences per URL and
// exercise the traversal deterministically.
type FetchAndExtract interface {
	FetchAndExtract(ctx context.Context, pageURL string) ([]model.Anchor, error)
}

// HTTPFetcher fetches pages over HTTP and extracts their anchors.
// It is used only for link discovery, never for content conversion.
type HTTPFetcher struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// parser extracts anchors from fetched HTML.
	parser *Parser

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra request headers (site credentials and the like).
	headers map[string]string

	// maxBodySize limits the number of response bytes read per page.
	maxBodySize int64
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra request headers sent with every fetch.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// NewHTTPFetcher creates an HTTPFetcher using the given client.
// The client carries the timeout policy; this layer adds none of its own.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		parser:      NewParser(),
		userAgent:   "mdmirror/1.0 (+https://github.com/mdmirror/mdmirror)",
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAndExtract fetches pageURL and returns the anchors on the page.
// Non-HTML responses yield no anchors and no error: the page is still a
// valid member of the discovered set, it just contributes no links.
func (f *HTTPFetcher) FetchAndExtract(ctx context.Context, pageURL string) ([]model.Anchor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		return nil, nil
	}

	body := io.LimitReader(resp.Body, f.maxBodySize)

	// Decode legacy charsets to UTF-8 before parsing; documentation
	// hosts still serve ISO-8859-1 and Shift_JIS pages.
	reader, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	anchors, err := f.parser.Parse(reader)
	if err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	return anchors, nil
}
