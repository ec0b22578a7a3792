// Package convert turns fetched pages into Markdown via the Jina Reader
// API.
//
// The Reader API is invoked by prepending the target URL to the API
// endpoint (https://r.jina.ai/https://example.com/docs/) with a Bearer
// key and an Accept header requesting Markdown. The client here is a
// thin, context-aware wrapper: one call per discovered page, failures
// reported as *ConversionError so the pipeline can skip the page and
// continue.
package convert
