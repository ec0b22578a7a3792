package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/mdmirror/mdmirror/internal/model"
)

// MarkdownWriter outputs a run manifest in Markdown format.
// The manifest is meant to live next to the mirrored files: it maps
// every source URL to its local file and records what failed.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation: type-safe tables and lists, plus GitHub-flavored
// alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run manifest in Markdown format.
func (w *MarkdownWriter) Write(run *model.MirrorRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run)
	w.writePages(md, run)
	w.writeFailures(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the manifest header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.MirrorRun) {
	md.H1("Mirror Manifest")
	md.PlainText("")

	rows := [][]string{
		{"Root", "`" + run.Root + "`"},
		{"Depth", strconv.Itoa(run.Depth)},
		{"Parent levels", strconv.Itoa(run.ParentLevels)},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if run.OutputDir != "" {
		rows = append(rows, []string{"Output directory", "`" + run.OutputDir + "`"})
	}
	if !run.FinishedAt.IsZero() {
		rows = append(rows, []string{"Duration", run.Duration().String()})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the outcome summary with a status chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.MirrorRun) {
	md.H2("Summary")
	md.PlainText("")

	written := run.WrittenCount()
	failed := run.FailedCount()

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Discovered", strconv.Itoa(len(run.Pages))},
			{"Written", strconv.Itoa(written)},
			{"Failed", strconv.Itoa(failed)},
		},
	})
	md.PlainText("")

	if len(run.Pages) > 0 {
		w.writePieChart(md, run)
	}

	switch {
	case len(run.Pages) == 0:
		md.Cautionf("No pages were discovered from %s.", run.Root)
	case failed > 0:
		md.Warningf("%d page(s) failed; their links may point at missing files.", failed)
	default:
		md.Tip("All discovered pages were mirrored successfully.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.MirrorRun) {
	counts := map[model.PageStatus]int{}
	for _, p := range run.Pages {
		counts[p.Status]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	labels := []struct {
		status model.PageStatus
		label  string
	}{
		{model.StatusWritten, "Written"},
		{model.StatusConverted, "Converted"},
		{model.StatusDiscovered, "Discovered"},
		{model.StatusConvertFailed, "Convert failed"},
		{model.StatusWriteFailed, "Write failed"},
	}
	for _, l := range labels {
		if n := counts[l.status]; n > 0 {
			chart.LabelAndIntValue(l.label, uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes the URL-to-file table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, run *model.MirrorRun) {
	md.H2("Pages")
	md.PlainText("")

	if len(run.Pages) == 0 {
		md.PlainText("No pages discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Pages))
	for i, p := range run.Pages {
		local := p.LocalPath
		if local == "" {
			local = "-"
		}
		detail := string(p.Status)
		if p.Error != "" {
			detail += ": " + truncateString(p.Error, 60)
		}
		rows[i] = []string{
			"`" + p.URL + "`",
			"`" + local + "`",
			detail,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "File", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the discovery failure list.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.MirrorRun) {
	if len(run.DiscoveryFailures) == 0 {
		return
	}

	md.H2("Discovery Failures")
	md.PlainText("")
	md.PlainText("These pages could not be fetched during link discovery. They are still mirrored, but links they would have contributed are missing.")
	md.PlainText("")

	items := make([]string, len(run.DiscoveryFailures))
	for i, f := range run.DiscoveryFailures {
		items[i] = "`" + f.URL + "` - " + f.Reason
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the manifest footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [mdmirror](https://github.com/mdmirror/mdmirror)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
