package model

// Anchor is a hyperlink extracted from a page's markup.
// RawHref is kept exactly as it appeared in the document; resolution
// against the page URL and canonicalization happen in the discoverer.
type Anchor struct {
	// Text is the rendered display text of the anchor element.
	Text string `json:"text"`

	// RawHref is the unmodified href attribute value.
	RawHref string `json:"raw_href"`
}

// PageStatus describes the outcome of processing one discovered page.
type PageStatus string

// Page processing outcomes, in the order they can occur during a run.
const (
	// StatusDiscovered means the page was found during discovery but
	// has not been converted yet. A page whose discovery fetch failed
	// keeps this status too: the failure is recorded on the run and
	// only the page's outgoing links were lost.
	StatusDiscovered PageStatus = "discovered"

	// StatusConverted means the conversion service returned content.
	StatusConverted PageStatus = "converted"

	// StatusConvertFailed means the conversion service failed for
	// this page. No output file is produced.
	StatusConvertFailed PageStatus = "convert_failed"

	// StatusWritten means the rewritten content was persisted.
	StatusWritten PageStatus = "written"

	// StatusWriteFailed means persisting the output file failed.
	StatusWriteFailed PageStatus = "write_failed"
)

// PageResult tracks one discovered page through the mirror pipeline.
//
// Design decision: We use a single mutable record per page rather than
// separate result types per phase because every phase needs the canonical
// URL and local path together, and the report writers want one row per page.
type PageResult struct {
	// URL is the canonical URL of the page.
	URL string `json:"url"`

	// LocalPath is the output path relative to the output directory.
	// Empty until the path map is built.
	LocalPath string `json:"local_path,omitempty"`

	// Status is the page's current pipeline status.
	Status PageStatus `json:"status"`

	// Error holds the failure message when Status is one of the
	// *_failed values.
	Error string `json:"error,omitempty"`

	// Content is the converted (and later rewritten) Markdown.
	// Excluded from JSON to keep reports small.
	Content string `json:"-"`

	// Bytes is the size of the persisted file.
	Bytes int `json:"bytes,omitempty"`
}

// Failed reports whether the page ended in a failure state.
func (p *PageResult) Failed() bool {
	switch p.Status {
	case StatusConvertFailed, StatusWriteFailed:
		return true
	default:
		return false
	}
}
