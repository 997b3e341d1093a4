// Package pdftool builds and executes pdfcpu and Ghostscript commands with
// a shared argument skeleton and unified retry logic.
//
// Builders return argument slices without the binary name so tests can
// assert on them directly. [Executor] runs a binary with a per-call timeout
// and captures stdout and stderr separately. [RetryState] inspects
// Ghostscript stderr after a failure and applies at most one fix per
// attempt.
package pdftool
