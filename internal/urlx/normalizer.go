package urlx

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultIndexAliases are the path segments treated as directory index
// files. A canonical URL never ends with one of these; the parent
// directory form is used instead.
var DefaultIndexAliases = []string{"index.html", "index.htm"}

// DefaultRevisionParams are the query parameters stripped during
// canonicalization. A key mapped to "" is dropped regardless of value;
// a key mapped to a non-empty string is dropped only for that value.
// The defaults cover the common wiki revision markers: a literal "rev"
// key and the DokuWiki-style "do=revisions" pair.
func DefaultRevisionParams() map[string]string {
	return map[string]string{
		"rev": "",
		"do":  "revisions",
	}
}

// Normalizer canonicalizes URLs into the stable comparison key used for
// traversal, deduplication, path mapping, and link rewriting.
//
// The rules, applied in order:
//  1. Resolve relative references against the base URL.
//  2. Strip the fragment.
//  3. Strip revision query parameters (see DefaultRevisionParams).
//  4. Strip a trailing index alias segment (see DefaultIndexAliases).
//  5. Ensure directory-like paths end with exactly one "/"; paths whose
//     final segment contains a "." keep their file form.
//  6. Lowercase scheme and host. Path casing is preserved because origin
//     servers may serve case-sensitive paths.
//
// Each rule is idempotent: Normalize(Normalize(u)) == Normalize(u).
type Normalizer struct {
	// indexAliases are lowercase final path segments removed during
	// canonicalization.
	indexAliases []string

	// revisionParams maps query keys to the value they must carry to be
	// stripped ("" matches any value).
	revisionParams map[string]string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithIndexAliases overrides the index-file segments removed from paths.
func WithIndexAliases(aliases []string) NormalizerOption {
	return func(n *Normalizer) {
		n.indexAliases = aliases
	}
}

// WithRevisionParams overrides the revision query parameter denylist.
func WithRevisionParams(params map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		n.revisionParams = params
	}
}

// NewNormalizer creates a Normalizer with the documented defaults.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		indexAliases:   DefaultIndexAliases,
		revisionParams: DefaultRevisionParams(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize canonicalizes raw, resolving it against base when base is
// non-nil. It returns ErrMalformedURL when raw cannot be parsed or the
// resolved result is not an absolute http(s) URL.
//
// The canonical form is also the form used to issue fetches: it retains
// scheme and host and has no fragment.
func (n *Normalizer) Normalize(raw string, base *url.URL) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformedURL, raw, err)
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}

	// Only absolute web URLs have a canonical form. Anything else
	// (mailto:, javascript:, scheme-relative fragments without a base)
	// is rejected so callers skip the link.
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q: unsupported scheme %q", ErrMalformedURL, raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrMalformedURL, raw)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	n.stripRevisionParams(u)

	path := u.Path
	if path == "" {
		path = "/"
	}
	path = n.stripIndexAlias(path)
	path = ensureTrailingSlash(path)
	u.Path = path
	u.RawPath = ""

	return u.String(), nil
}

// ParseBase parses a canonical URL for use as a resolution base.
// The input must already be canonical; this is a convenience for callers
// that hold canonical strings and need a *url.URL.
func ParseBase(canonical string) (*url.URL, error) {
	u, err := url.Parse(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedURL, canonical, err)
	}
	return u, nil
}

// stripRevisionParams removes denylisted query parameters in place.
// Other query parameters are left untouched; the query is only re-encoded
// when something was removed.
func (n *Normalizer) stripRevisionParams(u *url.URL) {
	if u.RawQuery == "" || len(n.revisionParams) == 0 {
		return
	}

	q := u.Query()
	changed := false
	for key, rule := range n.revisionParams {
		vals, ok := q[key]
		if !ok {
			continue
		}
		if rule == "" {
			delete(q, key)
			changed = true
			continue
		}
		kept := make([]string, 0, len(vals))
		for _, v := range vals {
			if v != rule {
				kept = append(kept, v)
			}
		}
		if len(kept) != len(vals) {
			changed = true
			if len(kept) == 0 {
				delete(q, key)
			} else {
				q[key] = kept
			}
		}
	}

	if changed {
		u.RawQuery = q.Encode()
	}
}

// stripIndexAlias removes a trailing index-file segment, leaving the
// parent directory path.
func (n *Normalizer) stripIndexAlias(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	last := strings.ToLower(path[idx+1:])
	for _, alias := range n.indexAliases {
		if last == strings.ToLower(alias) {
			return path[:idx+1]
		}
	}
	return path
}

// ensureTrailingSlash applies the trailing-slash policy: directory-like
// paths end with exactly one "/", file-like paths (final segment contains
// a ".") do not gain one.
func ensureTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		// Collapse any run of trailing slashes to one.
		return strings.TrimRight(path, "/") + "/"
	}
	last := path[strings.LastIndex(path, "/")+1:]
	if strings.Contains(last, ".") {
		return path
	}
	return path + "/"
}
