// Package model defines the core data structures used throughout mdmirror.
//
// This package contains the following main types:
//   - Anchor: A hyperlink extracted from a fetched page
//   - PageResult: The per-page outcome of a mirror run
//   - MirrorRun: The full result of one mirror run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, pipeline, report, database) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
