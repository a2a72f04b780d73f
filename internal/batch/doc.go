// Package batch fans one lifecycle operation out over a range of guest IDs.
//
// A Dispatcher runs a fixed pool of workers that pull targets from a queue
// and run one pipeline each. Every target in the range ends up with exactly
// one Outcome in the Result, whatever happens to its siblings: a failed,
// timed-out or panicking pipeline only affects its own target, and targets
// that never started when the batch was cancelled are recorded as skipped.
package batch
