// Package main provides the entry point for the mdmirror CLI.
//
// mdmirror mirrors documentation sites as Markdown. It discovers pages
// by crawling, converts each page through the Jina Reader API, rewrites
// links between mirrored pages to relative local paths, and writes the
// result as a browsable file tree.
//
// Usage:
//
//	mdmirror mirror https://docs.example.com/guide/
//	mdmirror links https://docs.example.com/guide/ --depth 2
//
// See --help for all available options.
package main

// main is the entry point for mdmirror.
func main() {
	Execute()
}
