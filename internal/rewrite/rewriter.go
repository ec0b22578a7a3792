package rewrite

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mdmirror/mdmirror/internal/urlx"
)

// inlineLink matches Markdown inline links: display text, target, and an
// optional quoted title. Targets containing parentheses or whitespace
// deliberately fail to match and are left verbatim.
var inlineLink = regexp.MustCompile(`(\[[^\]]*\]\()([^()\s]+)((?:\s+"[^"]*")?\))`)

// codeSpan matches inline code spans so link-like text inside them is
// never rewritten.
var codeSpan = regexp.MustCompile("`[^`]*`")

// Rewriter rewrites intra-set link targets to relative local paths.
// It shares the crawl's Normalizer so a link and the discovered page it
// points at reduce to the same canonical key.
type Rewriter struct {
	// norm canonicalizes link targets before path-map lookup.
	norm *urlx.Normalizer
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithNormalizer sets a custom URL normalizer.
func WithNormalizer(n *urlx.Normalizer) Option {
	return func(r *Rewriter) {
		r.norm = n
	}
}

// NewRewriter creates a Rewriter.
func NewRewriter(opts ...Option) *Rewriter {
	r := &Rewriter{}
	for _, opt := range opts {
		opt(r)
	}
	if r.norm == nil {
		r.norm = urlx.NewNormalizer()
	}
	return r
}

// Rewrite returns content with every inline link target that resolves to
// a member of pathMap replaced by the relative path from pageURL's own
// output file to the target's output file. Fragments on rewritten
// targets are preserved. Everything else is returned byte-for-byte.
func (r *Rewriter) Rewrite(pageURL, content string, pathMap *urlx.PathMap) string {
	base, err := urlx.ParseBase(pageURL)
	if err != nil {
		return content
	}

	lines := strings.Split(content, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lines[i] = r.rewriteLine(pageURL, line, base, pathMap)
	}
	return strings.Join(lines, "\n")
}

// rewriteLine rewrites link targets in one line, leaving code spans
// untouched.
func (r *Rewriter) rewriteLine(pageURL, line string, base *url.URL, pathMap *urlx.PathMap) string {
	matches := inlineLink.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line
	}
	spans := codeSpan.FindAllStringIndex(line, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(line[last:m[0]])
		last = m[1]

		inSpan := false
		for _, span := range spans {
			if m[0] >= span[0] && m[0] < span[1] {
				inSpan = true
				break
			}
		}
		if inSpan {
			b.WriteString(line[m[0]:m[1]])
			continue
		}

		target := line[m[4]:m[5]]
		b.WriteString(line[m[2]:m[3]])
		b.WriteString(r.rewriteTarget(pageURL, target, base, pathMap))
		b.WriteString(line[m[6]:m[7]])
	}
	b.WriteString(line[last:])
	return b.String()
}

// rewriteTarget maps one link target to a relative local path, or
// returns it unchanged.
func (r *Rewriter) rewriteTarget(pageURL, target string, base *url.URL, pathMap *urlx.PathMap) string {
	// A bare fragment already points inside the page's own file.
	if strings.HasPrefix(target, "#") {
		return target
	}

	frag := ""
	if i := strings.Index(target, "#"); i >= 0 {
		frag = target[i:]
	}

	canonical, err := r.norm.Normalize(target, base)
	if err != nil {
		return target
	}

	rel, ok := pathMap.RelPath(pageURL, canonical)
	if !ok {
		return target
	}
	return rel + frag
}
