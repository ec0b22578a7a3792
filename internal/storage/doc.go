// Package storage persists mirrored Markdown files to the local
// filesystem.
//
// A DirStore roots all writes under a single output directory. Paths
// come from the URL-to-path mapping, which produces forward-slash
// relative paths; the store converts them to the platform separator,
// creates intermediate directories, and refuses any path that would
// escape the root.
package storage
