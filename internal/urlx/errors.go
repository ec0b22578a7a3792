package urlx

import "errors"

// ErrMalformedURL is returned when an input cannot be parsed as a URL, or
// when the resolved result is not an absolute http(s) URL.
//
// Design decision: We use one sentinel for every rejection cause rather
// than distinguishing parse errors from scheme errors. Callers treat both
// identically: skip the single offending link and continue. The wrapped
// message preserves the detail for logs.
var ErrMalformedURL = errors.New("malformed URL")
