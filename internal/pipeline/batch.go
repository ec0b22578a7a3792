package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdmirror/mdmirror/internal/model"
)

// BatchProcessor mirrors multiple roots concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because it keeps the Pipeline focused
// on single-run execution and allows different batch strategies later.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each run.
	// Steps read the root from the run, so pipelines are root-agnostic;
	// the factory still exists so each run gets a fresh instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed runs. Access is synchronized via mutex.
	results []*model.MirrorRun
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent runs.
// Default is 2: each run already fetches and converts in parallel, so
// batch-level concurrency multiplies quickly.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each root to create a
// fresh pipeline instance, so pipeline state never leaks between runs.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		results:         make([]*model.MirrorRun, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch mirrors multiple roots concurrently with the given
// crawl settings. It respects the configured concurrency limit and
// context cancellation.
//
// Returns all runs in input order, even for roots that failed; a
// failed root's run carries whatever was accumulated before the
// failure. The error return indicates cancellation only.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, roots []string, depth, parentLevels int) ([]*model.MirrorRun, error) {
	bp.logger.Info("starting batch processing",
		"total_roots", len(roots),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocated to maintain input order
	bp.results = make([]*model.MirrorRun, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, root := range roots {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("mirroring root",
				"root", root,
				"index", i+1,
				"total", len(roots),
			)

			run := model.NewMirrorRun(root, depth, parentLevels)
			p := bp.pipelineFactory()
			err := p.Execute(ctx, run)
			if run.FinishedAt.IsZero() {
				run.FinishedAt = time.Now()
			}

			bp.mu.Lock()
			bp.results[i] = run
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("mirror run failed",
					"root", root,
					"error", err,
				)
				// Other roots still get mirrored; the partial run is
				// already stored.
				return nil
			}

			bp.logger.Info("mirror run completed",
				"root", run.Root,
				"pages", len(run.Pages),
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_roots", len(roots),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
