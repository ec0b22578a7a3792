// Package log provides logging with automatic sanitization of
// sensitive information, built on top of the standard slog package.
//
// mdmirror handles credentials in several places: the Jina Reader API
// key, per-site HTTP headers from the config file (cookies, bearer
// tokens), and whatever a user puts in --header flags. Debug logging
// prints request details, so every attribute passes through a
// sanitizing handler before it reaches the output.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("conversion request",
//	    "authorization", "Bearer jina_abc123", // masked
//	    "url", "https://r.jina.ai/https://a.com/docs/",
//	)
//
// Even in verbose mode, sensitive values are masked so logs can be
// shared in bug reports without leaking keys.
package log
