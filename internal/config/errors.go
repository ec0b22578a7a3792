package config

import "errors"

// Configuration validation errors.
// These are package-level sentinels so callers can use errors.Is for
// programmatic handling while the messages stay human-readable.
var (
	// ErrNoStartURL is returned when no start URL is provided.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be zero or positive")

	// ErrInvalidParentLevels is returned when the parent-levels value
	// is negative.
	ErrInvalidParentLevels = errors.New("invalid parent levels: must be zero or positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Zero means use the default.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
