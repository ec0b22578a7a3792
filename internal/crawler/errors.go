package crawler

import "fmt"

// FetchError reports a failed page fetch during discovery: a network
// failure, a non-success HTTP status, or unparsable markup. It carries
// the page URL so the failure can be reported against the page, and a
// single page's FetchError never aborts a discovery run.
type FetchError struct {
	// URL is the page that failed.
	URL string

	// StatusCode is the HTTP status, or 0 when the request never
	// completed.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *FetchError) Unwrap() error {
	return e.Err
}
