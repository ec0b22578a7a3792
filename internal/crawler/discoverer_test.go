package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mdmirror/mdmirror/internal/model"
)

// scriptedFetcher is a FetchAndExtract fake returning scripted anchor
// sequences per canonical URL.
type scriptedFetcher struct {
	pages map[string][]model.Anchor
	fail  map[string]error

	mu    sync.Mutex
	calls []string
}

func (s *scriptedFetcher) FetchAndExtract(_ context.Context, pageURL string) ([]model.Anchor, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pageURL)
	s.mu.Unlock()

	if err, ok := s.fail[pageURL]; ok {
		return nil, err
	}
	return s.pages[pageURL], nil
}

func links(hrefs ...string) []model.Anchor {
	anchors := make([]model.Anchor, 0, len(hrefs))
	for _, h := range hrefs {
		anchors = append(anchors, model.Anchor{Text: "link", RawHref: h})
	}
	return anchors
}

func hasPage(r *Result, url string) bool {
	for _, p := range r.Pages {
		if p == url {
			return true
		}
	}
	return false
}

// TestDiscoverer tests the breadth-first traversal contract.
func TestDiscoverer(t *testing.T) {
	t.Parallel()

	t.Run("depth zero discovers only the root", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/": links("page1", "page2"),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Pages) != 1 || result.Pages[0] != "https://a.com/docs/" {
			t.Errorf("Pages = %v, want only the root", result.Pages)
		}
	})

	t.Run("depth bounds the traversal", func(t *testing.T) {
		t.Parallel()

		// root -> a -> b -> c, one link per page.
		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/":   links("a"),
				"https://a.com/docs/a/": links("b"),
				"https://a.com/docs/b/": links("c"),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 2, 0)
		if err != nil {
			t.Fatal(err)
		}

		want := []string{
			"https://a.com/docs/",
			"https://a.com/docs/a/",
			"https://a.com/docs/b/",
		}
		if len(result.Pages) != len(want) {
			t.Fatalf("Pages = %v, want %v", result.Pages, want)
		}
		for i, u := range want {
			if result.Pages[i] != u {
				t.Errorf("Pages[%d] = %q, want %q", i, result.Pages[i], u)
			}
		}
		if hasPage(result, "https://a.com/docs/c/") {
			t.Error("page at depth 3 must not be discovered with maxDepth 2")
		}
	})

	t.Run("cycles terminate with each page once", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/a/": links("/b/"),
				"https://a.com/b/": links("/a/"),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/a/", 10, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Pages) != 2 {
			t.Errorf("Pages = %v, want exactly {a, b}", result.Pages)
		}
	})

	t.Run("out of scope links are rejected", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/": links(
					"inside/",
					"/elsewhere/",
					"https://other.com/docs/",
					"http://a.com/docs/inside/",
				),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 1, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !hasPage(result, "https://a.com/docs/inside/") {
			t.Error("in-scope link missing from discovered set")
		}
		for _, bad := range []string{
			"https://a.com/elsewhere/",
			"https://other.com/docs/",
			"http://a.com/docs/inside/",
		} {
			if hasPage(result, bad) {
				t.Errorf("out-of-scope %q admitted", bad)
			}
		}
	})

	t.Run("parent levels widen the scope", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/guide/": links("/docs/other/"),
			},
		}
		d := NewDiscoverer(fetcher)

		narrow, err := d.Discover(context.Background(), "https://a.com/docs/guide/", 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if hasPage(narrow, "https://a.com/docs/other/") {
			t.Error("sibling admitted at parentLevels 0")
		}

		wide, err := d.Discover(context.Background(), "https://a.com/docs/guide/", 1, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !hasPage(wide, "https://a.com/docs/other/") {
			t.Error("sibling missing at parentLevels 1")
		}
	})

	t.Run("fetch failure skips links but keeps the page", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/":      links("broken/", "good/"),
				"https://a.com/docs/good/": links("reachable/"),
			},
			fail: map[string]error{
				"https://a.com/docs/broken/": &FetchError{URL: "https://a.com/docs/broken/", StatusCode: 503},
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 3, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !hasPage(result, "https://a.com/docs/broken/") {
			t.Error("failed page must remain in the discovered set")
		}
		if !hasPage(result, "https://a.com/docs/good/reachable/") {
			t.Error("sibling subtree must survive another page's fetch failure")
		}
		if len(result.Failures) != 1 || result.Failures[0].URL != "https://a.com/docs/broken/" {
			t.Errorf("Failures = %v, want the broken page recorded once", result.Failures)
		}
	})

	t.Run("asset links are not admitted", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/": links(
					"diagram.png",
					"manual.pdf",
					"archive.tar.gz",
					"guide.html",
					"guide/",
				),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 1, 0)
		if err != nil {
			t.Fatal(err)
		}

		for _, bad := range []string{
			"https://a.com/docs/diagram.png",
			"https://a.com/docs/manual.pdf",
			"https://a.com/docs/archive.tar.gz",
		} {
			if hasPage(result, bad) {
				t.Errorf("asset %q admitted", bad)
			}
		}
		if !hasPage(result, "https://a.com/docs/guide.html") {
			t.Error(".html page missing from discovered set")
		}
		if !hasPage(result, "https://a.com/docs/guide/") {
			t.Error("extensionless page missing from discovered set")
		}
	})

	t.Run("malformed hrefs are skipped", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/": links("mailto:x@y.z", "http://%zz", "ok/"),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Pages) != 2 {
			t.Errorf("Pages = %v, want root and ok/ only", result.Pages)
		}
	})

	t.Run("equivalent spellings are fetched once", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/": links(
					"page",
					"page/",
					"page/index.html",
					"page#section",
				),
			},
		}
		d := NewDiscoverer(fetcher)

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Pages) != 2 {
			t.Errorf("Pages = %v, want root plus one page", result.Pages)
		}

		count := 0
		for _, c := range fetcher.calls {
			if c == "https://a.com/docs/page/" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("page fetched %d times, want 1", count)
		}
	})

	t.Run("strict level order with concurrent fetches", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{
			pages: map[string][]model.Anchor{
				"https://a.com/docs/":    links("l1a/", "l1b/"),
				"https://a.com/docs/l1a/": links("l2/"),
				"https://a.com/docs/l1b/": links("l2/"),
			},
		}
		d := NewDiscoverer(fetcher, WithConcurrency(4))

		result, err := d.Discover(context.Background(), "https://a.com/docs/", 2, 0)
		if err != nil {
			t.Fatal(err)
		}

		// The depth-2 page must come after both depth-1 pages in call order.
		pos := map[string]int{}
		for i, c := range fetcher.calls {
			pos[c] = i
		}
		l2 := pos["https://a.com/docs/l2/"]
		if l2 < pos["https://a.com/docs/l1a/"] || l2 < pos["https://a.com/docs/l1b/"] {
			t.Errorf("depth-2 page fetched before depth 1 finished: %v", fetcher.calls)
		}
		if len(result.Pages) != 4 {
			t.Errorf("Pages = %v, want 4 unique pages", result.Pages)
		}
	})

	t.Run("cancelled context stops expansion", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fetcher := &scriptedFetcher{pages: map[string][]model.Anchor{}}
		d := NewDiscoverer(fetcher)

		_, err := d.Discover(ctx, "https://a.com/docs/", 5, 0)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("rejects a malformed root", func(t *testing.T) {
		t.Parallel()

		d := NewDiscoverer(&scriptedFetcher{})
		if _, err := d.Discover(context.Background(), "not a url", 0, 0); err == nil {
			t.Error("malformed root must fail discovery")
		}
	})
}
