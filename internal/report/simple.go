package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mdmirror/mdmirror/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// Plain ASCII rather than ANSI color so the output pipes cleanly to
// files and other tools.
type SimpleWriter struct {
	baseWriter

	// verbose lists every page instead of only failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the full per-page listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.MirrorRun) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSummary(&sb, run)
	w.writePages(&sb, run)
	w.writeFailures(&sb, run)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.MirrorRun) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          MDMIRROR RUN\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Root:        %s\n", run.Root))
	if run.OutputDir != "" {
		sb.WriteString(fmt.Sprintf("Output:      %s\n", run.OutputDir))
	}
	sb.WriteString(fmt.Sprintf("Depth:       %d (parent levels: %d)\n", run.Depth, run.ParentLevels))
	sb.WriteString(fmt.Sprintf("Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if !run.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration:    %s\n", run.Duration().Round(fmtRound)))
	}
	sb.WriteString("\n")
}

const fmtRound = 1e7 // 10ms, keeps durations readable

// writeSummary writes the outcome counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, run *model.MirrorRun) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Discovered: %d\n", len(run.Pages)))
	sb.WriteString(fmt.Sprintf("  Written:    %d\n", run.WrittenCount()))
	sb.WriteString(fmt.Sprintf("  Failed:     %d\n", run.FailedCount()))
	sb.WriteString("\n")
}

// writePages lists pages. In non-verbose mode only failed pages are
// shown; a clean run stays quiet.
func (w *SimpleWriter) writePages(sb *strings.Builder, run *model.MirrorRun) {
	var shown []*model.PageResult
	for _, p := range run.Pages {
		if w.verbose || p.Failed() {
			shown = append(shown, p)
		}
	}
	if len(shown) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if w.verbose {
		sb.WriteString("PAGES\n")
	} else {
		sb.WriteString("FAILED PAGES\n")
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range shown {
		marker := "+"
		if p.Failed() {
			marker = "!"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, p.URL))
		if p.LocalPath != "" {
			sb.WriteString(fmt.Sprintf("      -> %s\n", p.LocalPath))
		}
		if p.Error != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", p.Error))
		}
	}
	sb.WriteString("\n")
}

// writeFailures lists discovery fetch failures.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, run *model.MirrorRun) {
	if len(run.DiscoveryFailures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DISCOVERY FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range run.DiscoveryFailures {
		sb.WriteString(fmt.Sprintf("  * %s\n", f.URL))
		sb.WriteString(fmt.Sprintf("    %s\n", f.Reason))
	}
	sb.WriteString("\n")
}
