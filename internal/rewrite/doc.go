// Package rewrite post-processes converted Markdown so that links
// between mirrored pages point at the local files instead of the origin
// site.
//
// Rewriting is deliberately narrow: only the target substring of inline
// Markdown links is ever touched. Display text, links to pages outside
// the mirrored set, code spans, fenced code blocks, and every other byte
// of the document pass through unchanged. The rewriter is pure and has
// no failure path; anything it cannot resolve is left verbatim.
package rewrite
