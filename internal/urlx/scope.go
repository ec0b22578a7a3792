package urlx

import (
	"fmt"
	"net/url"
	"strings"
)

// Scope decides which canonical URLs are admitted into a crawl.
//
// A candidate is in scope iff its scheme and host match the root's and
// its path starts with the scope prefix. The prefix is the root's own
// canonical path walked upward parentLevels segments; level 0 admits
// only URLs at or below the root's path, and each additional level
// widens the scope by one directory, never above the host root.
type Scope struct {
	// scheme is the root's lowercase scheme.
	scheme string

	// host is the root's lowercase host.
	host string

	// prefix is the path prefix candidates must carry.
	prefix string
}

// NewScope creates a Scope from a canonical root URL and a widening level.
// Negative parentLevels is treated as zero.
func NewScope(rootCanonical string, parentLevels int) (*Scope, error) {
	u, err := url.Parse(rootCanonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedURL, rootCanonical, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q: scope root must be absolute", ErrMalformedURL, rootCanonical)
	}

	prefix := u.Path
	if prefix == "" {
		prefix = "/"
	}
	for i := 0; i < parentLevels && prefix != "/"; i++ {
		prefix = parentDir(prefix)
	}

	return &Scope{
		scheme: strings.ToLower(u.Scheme),
		host:   strings.ToLower(u.Host),
		prefix: prefix,
	}, nil
}

// Contains reports whether the canonical URL is inside the scope.
func (s *Scope) Contains(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}
	if strings.ToLower(u.Scheme) != s.scheme || strings.ToLower(u.Host) != s.host {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return strings.HasPrefix(path, s.prefix)
}

// Prefix returns the computed path prefix. Useful for logging.
func (s *Scope) Prefix() string {
	return s.prefix
}

// IsPageURL reports whether a canonical URL plausibly points at a
// renderable HTML page rather than a static asset. A URL qualifies
// when its final path segment has no extension or carries an
// .html/.htm one; admitting images, archives or PDFs would waste a
// conversion call on each.
func IsPageURL(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return true
	}
	last := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if !strings.Contains(last, ".") {
		return true
	}
	ext := strings.ToLower(last[strings.LastIndex(last, "."):])
	return ext == ".html" || ext == ".htm"
}

// parentDir removes one trailing path segment, keeping the trailing "/".
// "/docs/guide/" -> "/docs/", "/docs/page.html" -> "/docs/". It never
// goes above "/".
func parentDir(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "/"
	}
	return trimmed[:idx+1]
}
