// Package retry re-runs transient remote calls with backoff.
//
// Only transport-level failures (network errors, 429 and 5xx responses) are
// retried. Responses the remote service deliberately rejects are returned to
// the caller on the first attempt.
package retry
