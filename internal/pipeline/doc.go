// Package pipeline executes the mirror stages in sequence.
//
// A run flows through discovery, path mapping, conversion, link
// rewriting, persistence, and history recording. Each stage is a Step
// that receives the accumulated MirrorRun and modifies it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
//    (listing-only mode is just a shorter pipeline)
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running runs
//
// The pipeline supports both single runs and batch processing of
// several roots with concurrency control using errgroup.
package pipeline
