// Package report formats mirror run results for output.
//
// Three writers cover the common uses: SimpleWriter prints a plain
// text summary for the terminal, JSONWriter emits the run for tool
// integration, and MarkdownWriter produces a manifest suitable for
// committing next to the mirrored files. MultiWriter fans out to
// several destinations, typically terminal plus report file.
//
// Report data lives in the model package; writers only format it.
// That keeps new output formats from touching the core structures.
package report
