// Package urlx provides URL canonicalization, crawl-scope checks, and the
// mapping from canonical URLs to local output paths.
//
// # Canonical form
//
// Two spellings of the same page (fragment-only differences, trailing
// slashes, index-file suffixes, revision query parameters) must reduce to
// one canonical string. That string is the identity used everywhere else:
// the discoverer's visited set, the path map, and link rewriting all key
// on it.
//
// # Components
//
//   - Normalizer: produces the canonical form of a URL
//   - Scope: decides whether a canonical URL is inside the crawl scope
//   - PathMap: the injective canonical-URL → local-path mapping for a run
//
// Design decision: This package is built on net/url from the standard
// library. Canonicalization is string surgery on parsed URLs; every crawler
// in the ecosystem does this directly with net/url, and no third-party
// library covers the index-alias and revision-parameter policy this tool
// needs.
package urlx
