// Package capture runs the capture, submit and retry state machine.
//
// A Controller owns one event loop goroutine. Every state transition happens
// on that loop; submissions run on a worker goroutine and post their outcome
// back, so at most one submission is ever in flight. Retries are driven by a
// RetryPolicy and an injectable Clock. A manual trigger cancels any pending
// retry timer before starting a new cycle.
package capture
