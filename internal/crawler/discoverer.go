package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdmirror/mdmirror/internal/model"
	"github.com/mdmirror/mdmirror/internal/urlx"
)

// Discoverer performs the scope- and depth-bounded breadth-first link
// discovery. It owns no traversal state between runs; everything lives
// inside a single Discover call.
type Discoverer struct {
	// norm canonicalizes every URL before admission.
	norm *urlx.Normalizer

	// fetcher is the injected fetch+parse collaborator.
	fetcher FetchAndExtract

	// concurrency bounds parallel fetches within one depth level.
	concurrency int

	// delay staggers fetch starts. Politeness setting.
	delay time.Duration

	// logger receives per-page progress and skip reasons.
	logger *slog.Logger
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithNormalizer sets a custom URL normalizer.
func WithNormalizer(n *urlx.Normalizer) DiscovererOption {
	return func(d *Discoverer) {
		d.norm = n
	}
}

// WithConcurrency bounds the number of parallel fetches per depth level.
func WithConcurrency(n int) DiscovererOption {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDelay sets the delay between fetch starts.
func WithDelay(delay time.Duration) DiscovererOption {
	return func(d *Discoverer) {
		d.delay = delay
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DiscovererOption {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// NewDiscoverer creates a Discoverer using the given fetch collaborator.
func NewDiscoverer(fetcher FetchAndExtract, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		fetcher:     fetcher,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.norm == nil {
		d.norm = urlx.NewNormalizer()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Result is the outcome of one discovery run.
type Result struct {
	// Root is the canonical form of the start URL.
	Root string

	// Pages holds the discovered canonical URLs in first-seen order.
	// Membership, not order, is the contract; the order exists so path
	// mapping is stable across runs over the same link graph.
	Pages []string

	// Failures lists pages whose fetch failed. Those pages are still
	// members of Pages; only their outgoing links are missing.
	Failures []model.FetchFailure
}

// Discover runs a breadth-first traversal from rootURL.
//
// Every dequeued page is already a member of the discovered set before
// its links are processed. Candidate links are canonicalized against the
// page they appear on, then admitted only when in scope, page-like
// (extensionless or .html/.htm), unvisited, and within the depth bound:
// maxDepth 0 discovers only the root. The visited set guarantees
// termination on cyclic link graphs.
//
// On context cancellation the partial result is returned together with
// the context error.
func (d *Discoverer) Discover(ctx context.Context, rootURL string, maxDepth, parentLevels int) (*Result, error) {
	root, err := d.norm.Normalize(rootURL, nil)
	if err != nil {
		return nil, err
	}

	scope, err := urlx.NewScope(root, parentLevels)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Root:  root,
		Pages: []string{root},
	}
	visited := map[string]bool{root: true}
	level := []string{root}

	d.logger.Info("starting discovery",
		"root", root,
		"maxDepth", maxDepth,
		"scopePrefix", scope.Prefix(),
	)

	for depth := 0; len(level) > 0; depth++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		d.logger.Debug("processing depth level", "depth", depth, "pages", len(level))

		anchors, failures := d.fetchLevel(ctx, level)
		for i, fail := range failures {
			if fail == nil {
				continue
			}
			if errors.Is(fail, context.Canceled) || errors.Is(fail, context.DeadlineExceeded) {
				return result, ctx.Err()
			}
			d.logger.Warn("page fetch failed, skipping its links",
				"url", level[i],
				"error", fail,
			)
			result.Failures = append(result.Failures, model.FetchFailure{
				URL:    level[i],
				Reason: fail.Error(),
			})
		}

		// Pages dequeued at maxDepth stay in the set, but their links
		// are not expanded.
		if depth >= maxDepth {
			break
		}

		// Admission runs sequentially in level order after the level's
		// fetches complete: the visited check-and-set stays atomic and
		// first-seen order is deterministic for a given link graph.
		next := make([]string, 0)
		for i, page := range level {
			base, err := urlx.ParseBase(page)
			if err != nil {
				continue
			}
			for _, anchor := range anchors[i] {
				candidate, err := d.norm.Normalize(anchor.RawHref, base)
				if err != nil {
					d.logger.Debug("skipping link", "href", anchor.RawHref, "reason", err)
					continue
				}
				if !scope.Contains(candidate) {
					d.logger.Debug("skipping out-of-scope link", "url", candidate)
					continue
				}
				if !urlx.IsPageURL(candidate) {
					d.logger.Debug("skipping non-page link", "url", candidate)
					continue
				}
				if visited[candidate] {
					continue
				}
				visited[candidate] = true
				result.Pages = append(result.Pages, candidate)
				next = append(next, candidate)
			}
		}
		level = next
	}

	d.logger.Info("discovery complete",
		"pages", len(result.Pages),
		"fetchFailures", len(result.Failures),
	)
	return result, nil
}

// fetchLevel fetches all pages of one depth level, bounded by the
// configured concurrency. The returned slices align with the level's page
// order. A failure on one page never cancels its siblings.
func (d *Discoverer) fetchLevel(ctx context.Context, level []string) ([][]model.Anchor, []error) {
	anchors := make([][]model.Anchor, len(level))
	failures := make([]error, len(level))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for i, page := range level {
		if d.delay > 0 && i > 0 {
			select {
			case <-ctx.Done():
				failures[i] = ctx.Err()
				continue
			case <-time.After(d.delay):
			}
		}

		g.Go(func() error {
			found, err := d.fetcher.FetchAndExtract(ctx, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = err
				return nil
			}
			anchors[i] = found
			return nil
		})
	}

	// Workers always return nil; failures are collected per page.
	_ = g.Wait()

	return anchors, failures
}
