package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdmirror/mdmirror/internal/crawler"
	"github.com/mdmirror/mdmirror/internal/database"
	"github.com/mdmirror/mdmirror/internal/model"
	"github.com/mdmirror/mdmirror/internal/rewrite"
	"github.com/mdmirror/mdmirror/internal/storage"
	"github.com/mdmirror/mdmirror/internal/urlx"
)

// DiscoverStep runs link discovery from the run's root URL.
// It replaces run.Root with the canonical form and records one
// PageResult per discovered page in first-seen order.
type DiscoverStep struct {
	discoverer *crawler.Discoverer
	logger     *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a discovery step around the given discoverer.
func NewDiscoverStep(d *crawler.Discoverer, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		discoverer: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discovery step.
// A malformed root is a critical failure; individual page fetch
// failures are recorded on the run and discovery continues.
func (s *DiscoverStep) Do(ctx context.Context, run *model.MirrorRun) error {
	result, err := s.discoverer.Discover(ctx, run.Root, run.Depth, run.ParentLevels)
	if err != nil {
		return err
	}

	run.Root = result.Root
	run.DiscoveryFailures = result.Failures
	for _, u := range result.Pages {
		run.Pages = append(run.Pages, &model.PageResult{
			URL:    u,
			Status: model.StatusDiscovered,
		})
	}

	s.logger.Info("discovery complete",
		"root", run.Root,
		"pages", len(run.Pages),
		"failures", len(run.DiscoveryFailures),
	)
	return nil
}

// MapStep assigns each discovered page its local output path.
// The mapping is deterministic for a given page order, so re-running a
// mirror produces the same file layout.
type MapStep struct{}

// NewMapStep creates a path mapping step.
func NewMapStep() *MapStep {
	return &MapStep{}
}

// Name returns the step name.
func (s *MapStep) Name() string {
	return "map"
}

// Do executes the path mapping step.
func (s *MapStep) Do(_ context.Context, run *model.MirrorRun) error {
	pm := urlx.BuildPathMap(pageURLs(run))
	for _, p := range run.Pages {
		if path, ok := pm.Lookup(p.URL); ok {
			p.LocalPath = path
		}
	}
	return nil
}

// Converter turns one page URL into its Markdown rendition.
// convert.JinaClient is the production implementation.
type Converter interface {
	Convert(ctx context.Context, pageURL string) (string, error)
}

// ConvertStep converts every discovered page to Markdown.
// Pages are converted concurrently; one page's failure never stops the
// others, it is recorded on that page and the run moves on.
type ConvertStep struct {
	converter   Converter
	concurrency int
	delay       time.Duration
	logger      *slog.Logger
}

// ConvertStepOption configures a ConvertStep.
type ConvertStepOption func(*ConvertStep)

// WithConvertConcurrency bounds parallel conversion requests.
func WithConvertConcurrency(n int) ConvertStepOption {
	return func(s *ConvertStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithConvertDelay staggers conversion request starts.
func WithConvertDelay(d time.Duration) ConvertStepOption {
	return func(s *ConvertStep) {
		s.delay = d
	}
}

// WithConvertLogger sets a custom logger for the convert step.
func WithConvertLogger(logger *slog.Logger) ConvertStepOption {
	return func(s *ConvertStep) {
		s.logger = logger
	}
}

// NewConvertStep creates a conversion step using the given converter.
func NewConvertStep(c Converter, opts ...ConvertStepOption) *ConvertStep {
	s := &ConvertStep{
		converter:   c,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ConvertStep) Name() string {
	return "convert"
}

// Do executes the conversion step.
func (s *ConvertStep) Do(ctx context.Context, run *model.MirrorRun) error {
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

launch:
	for i, page := range run.Pages {
		if s.delay > 0 && i > 0 {
			select {
			case <-ctx.Done():
				// Stop launching, but still wait below for in-flight
				// conversions; they mutate the run's pages.
				break launch
			case <-time.After(s.delay):
			}
		}

		g.Go(func() error {
			content, err := s.converter.Convert(ctx, page.URL)
			if err != nil {
				s.logger.Warn("conversion failed",
					"url", page.URL,
					"error", err,
				)
				page.Status = model.StatusConvertFailed
				page.Error = err.Error()
				return nil
			}
			page.Content = content
			page.Status = model.StatusConverted
			return nil
		})
	}

	// Workers always return nil; failures live on the pages.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("conversion complete",
		"pages", len(run.Pages),
		"failed", run.FailedCount(),
	)
	return nil
}

// RewriteStep rewrites intra-set links in every converted page to
// relative local paths. It rebuilds the same deterministic path map
// the map step produced, so the two always agree.
type RewriteStep struct {
	rewriter *rewrite.Rewriter
}

// NewRewriteStep creates a link rewriting step.
func NewRewriteStep(r *rewrite.Rewriter) *RewriteStep {
	return &RewriteStep{rewriter: r}
}

// Name returns the step name.
func (s *RewriteStep) Name() string {
	return "rewrite"
}

// Do executes the rewrite step.
func (s *RewriteStep) Do(_ context.Context, run *model.MirrorRun) error {
	pm := urlx.BuildPathMap(pageURLs(run))
	for _, p := range run.Pages {
		if p.Status != model.StatusConverted {
			continue
		}
		p.Content = s.rewriter.Rewrite(p.URL, p.Content, pm)
	}
	return nil
}

// PersistStep writes every converted page to the output directory.
type PersistStep struct {
	store  *storage.DirStore
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persistence step using the given store.
func NewPersistStep(store *storage.DirStore, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, run *model.MirrorRun) error {
	run.OutputDir = s.store.Root()

	for _, p := range run.Pages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.Status != model.StatusConverted {
			continue
		}

		if err := s.store.Write(p.LocalPath, []byte(p.Content)); err != nil {
			s.logger.Warn("write failed",
				"url", p.URL,
				"path", p.LocalPath,
				"error", err,
			)
			p.Status = model.StatusWriteFailed
			p.Error = err.Error()
			continue
		}

		p.Status = model.StatusWritten
		p.Bytes = len(p.Content)
		s.logger.Debug("wrote page", "url", p.URL, "path", p.LocalPath)
	}

	s.logger.Info("persistence complete",
		"written", run.WrittenCount(),
		"failed", run.FailedCount(),
	)
	return nil
}

// RecordStep saves the finished run to the history database.
// A history failure never fails the mirror; the files on disk are the
// product, the database row is bookkeeping.
type RecordStep struct {
	db     *database.MirrorDB
	logger *slog.Logger
}

// RecordStepOption configures a RecordStep.
type RecordStepOption func(*RecordStep)

// WithRecordLogger sets a custom logger for the record step.
func WithRecordLogger(logger *slog.Logger) RecordStepOption {
	return func(s *RecordStep) {
		s.logger = logger
	}
}

// NewRecordStep creates a history recording step.
func NewRecordStep(db *database.MirrorDB, opts ...RecordStepOption) *RecordStep {
	s := &RecordStep{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do executes the record step.
func (s *RecordStep) Do(ctx context.Context, run *model.MirrorRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	id, err := s.db.SaveRun(ctx, run)
	if err != nil {
		s.logger.Warn("failed to record run history", "error", err)
		return nil
	}

	s.logger.Debug("run recorded", "id", id)
	return nil
}

// pageURLs returns the run's page URLs in first-seen order.
func pageURLs(run *model.MirrorRun) []string {
	urls := make([]string, len(run.Pages))
	for i, p := range run.Pages {
		urls[i] = p.URL
	}
	return urls
}
