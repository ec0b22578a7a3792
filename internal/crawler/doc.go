// Package crawler provides scope- and depth-bounded link discovery for
// documentation sites.
//
// # Architecture
//
// The package is split along the collaborator boundary from the design:
//
//   - Parser: extracts anchors (display text + raw href) from HTML
//   - Fetcher: performs the HTTP fetch and runs the Parser
//   - Discoverer: the breadth-first traversal over a frontier of URLs
//
// The Discoverer only depends on the FetchAndExtract interface, so tests
// drive it with scripted anchor sequences and never touch the network.
//
// # Traversal
//
// Discovery is strict breadth-first: all pages at depth d are fetched
// before any page at depth d+1 is dequeued. Fetches within one depth
// level may run concurrently; admission of candidate links into the
// visited set is serialized and happens in the level's page order, so the
// discovered set is deterministic for a given link graph. A fetch failure
// skips only that page's outgoing links and never aborts the run.
//
// All traversal state (frontier, visited set, discovered set) is scoped
// to a single Discover call, so independent discovery runs can execute
// concurrently on one Discoverer.
package crawler
