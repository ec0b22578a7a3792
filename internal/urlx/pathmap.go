package urlx

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// OutputExtension is the extension appended to every mapped path.
const OutputExtension = ".md"

// unsafeChars matches characters replaced in file name segments.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// MapPath derives the local output path for a canonical URL.
//
// The path is host + path with each URL segment becoming a directory
// boundary, unsafe characters replaced by "_", and OutputExtension
// appended. Retained query parameters are folded into the final segment
// so URLs differing only by query map to distinct paths. MapPath is a
// pure function of its input: repeated runs produce identical paths.
//
// MapPath never fails; an unparsable input (which cannot happen for
// canonical URLs) falls back to a sanitized generic name.
func MapPath(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" {
		return sanitizeSegment(canonical) + OutputExtension
	}

	segs := []string{sanitizeSegment(u.Host)}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		segs = append(segs, "index")
	} else {
		for _, seg := range strings.Split(trimmed, "/") {
			segs = append(segs, sanitizeSegment(seg))
		}
	}

	if u.RawQuery != "" {
		segs[len(segs)-1] += "_" + sanitizeSegment(u.RawQuery)
	}

	return strings.Join(segs, "/") + OutputExtension
}

// sanitizeSegment replaces characters unsafe for file names.
// An empty segment becomes "_" so joins never produce empty components.
func sanitizeSegment(seg string) string {
	out := unsafeChars.ReplaceAllString(seg, "_")
	if out == "" {
		return "_"
	}
	return out
}

// PathMap is the one-to-one mapping from canonical URL to local output
// path for one run. It is built once over the discovered set and read-only
// afterwards, so it can be shared across goroutines during rewriting.
type PathMap struct {
	// paths maps canonical URL to its local path.
	paths map[string]string

	// order holds the canonical URLs in first-seen order.
	order []string
}

// BuildPathMap builds a PathMap over the given canonical URLs.
// Duplicates are ignored. Sanitization can erase a distinguishing
// character and collapse two URLs onto one path; when that happens a
// deterministic "-2", "-3", … suffix is inserted before the extension in
// first-seen order, so results are stable across runs given the same URL
// order.
func BuildPathMap(urls []string) *PathMap {
	pm := &PathMap{
		paths: make(map[string]string, len(urls)),
		order: make([]string, 0, len(urls)),
	}
	used := make(map[string]bool, len(urls))

	for _, u := range urls {
		if _, ok := pm.paths[u]; ok {
			continue
		}
		p := MapPath(u)
		if used[p] {
			base := strings.TrimSuffix(p, OutputExtension)
			for i := 2; ; i++ {
				candidate := fmt.Sprintf("%s-%d%s", base, i, OutputExtension)
				if !used[candidate] {
					p = candidate
					break
				}
			}
		}
		used[p] = true
		pm.paths[u] = p
		pm.order = append(pm.order, u)
	}

	return pm
}

// Lookup returns the local path for a canonical URL.
func (pm *PathMap) Lookup(canonical string) (string, bool) {
	p, ok := pm.paths[canonical]
	return p, ok
}

// Len returns the number of mapped URLs.
func (pm *PathMap) Len() int {
	return len(pm.order)
}

// URLs returns the mapped canonical URLs in first-seen order.
func (pm *PathMap) URLs() []string {
	out := make([]string, len(pm.order))
	copy(out, pm.order)
	return out
}

// RelPath returns the relative path from the page mapped for fromURL to
// the page mapped for toURL. It returns false when either URL is not in
// the map.
func (pm *PathMap) RelPath(fromURL, toURL string) (string, bool) {
	from, ok := pm.paths[fromURL]
	if !ok {
		return "", false
	}
	to, ok := pm.paths[toURL]
	if !ok {
		return "", false
	}
	return Rel(from, to), true
}

// Rel computes the relative path from one local path to another using
// forward slashes regardless of platform.
func Rel(from, to string) string {
	fromSegs := dirSegments(from)
	toSegs := dirSegments(to)

	common := 0
	for common < len(fromSegs) && common < len(toSegs) && fromSegs[common] == toSegs[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromSegs); i++ {
		b.WriteString("../")
	}
	for i := common; i < len(toSegs); i++ {
		b.WriteString(toSegs[i])
		b.WriteString("/")
	}
	b.WriteString(path.Base(to))
	return b.String()
}

// dirSegments returns the directory components of a slash-separated path.
func dirSegments(p string) []string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(dir, "/"), "/")
}
