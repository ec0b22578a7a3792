// Package database provides SQLite-based run history for mdmirror.
//
// Every mirror run can be recorded in a local database: which root was
// mirrored, when, with what settings, and the per-page outcomes. The
// history subcommand reads this back so users can see what a previous
// run produced without re-crawling.
//
// SQLite (via modernc.org/sqlite) keeps the history a single file with
// no external dependencies and no CGO, which matters for a tool that
// is usually installed with "go install".
package database
