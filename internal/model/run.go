package model

import "time"

// FetchFailure records a page whose discovery fetch failed.
// The page itself remains in the discovered set; only the links it
// would have contributed are missing.
type FetchFailure struct {
	// URL is the canonical URL that failed to fetch.
	URL string `json:"url"`

	// Reason is the failure message.
	Reason string `json:"reason"`
}

// MirrorRun is the full result of one mirror run.
// It is created by the discover step and accumulated by every later
// pipeline step, then consumed by the report writers and the history
// database.
type MirrorRun struct {
	// Root is the canonical root URL the run started from.
	Root string `json:"root"`

	// OutputDir is the output directory for persisted files.
	// Empty in listing-only mode.
	OutputDir string `json:"output_dir,omitempty"`

	// Depth is the configured maximum crawl depth.
	Depth int `json:"depth"`

	// ParentLevels is the configured scope-widening level.
	ParentLevels int `json:"parent_levels"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed.
	FinishedAt time.Time `json:"finished_at"`

	// Pages holds one entry per discovered page, in first-seen order.
	Pages []*PageResult `json:"pages"`

	// DiscoveryFailures lists pages whose discovery fetch failed.
	DiscoveryFailures []FetchFailure `json:"discovery_failures,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewMirrorRun creates a MirrorRun for the given canonical root.
func NewMirrorRun(root string, depth, parentLevels int) *MirrorRun {
	return &MirrorRun{
		Root:         root,
		Depth:        depth,
		ParentLevels: parentLevels,
		StartedAt:    time.Now(),
		Pages:        make([]*PageResult, 0),
	}
}

// Page returns the PageResult for the given canonical URL, or nil.
func (r *MirrorRun) Page(url string) *PageResult {
	for _, p := range r.Pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// WrittenCount returns the number of pages persisted successfully.
func (r *MirrorRun) WrittenCount() int {
	n := 0
	for _, p := range r.Pages {
		if p.Status == StatusWritten {
			n++
		}
	}
	return n
}

// FailedCount returns the number of pages that ended in a failure state.
func (r *MirrorRun) FailedCount() int {
	n := 0
	for _, p := range r.Pages {
		if p.Failed() {
			n++
		}
	}
	return n
}

// Duration returns the elapsed time of the run.
// Zero if the run has not finished.
func (r *MirrorRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
