package pdftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Binary names looked up on PATH.
const (
	Pdfcpu      = "pdfcpu"
	Ghostscript = "gs"
)

// ExecResult holds the outcome of a single tool invocation.
type ExecResult struct {
	Stdout string
	Stderr string
	Err    error
}

// Runner runs an external tool. [Executor] is the real implementation; tests
// substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ExecResult
}

// Executor runs tools with a per-call timeout. When Tee is set, stderr is
// copied to it in real time as well as captured for classification.
type Executor struct {
	Timeout time.Duration
	Tee     io.Writer
}

// NewExecutor returns an executor with the given per-call timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{Timeout: timeout}
}

// Run executes name with args. A non-zero exit becomes a [*ToolError];
// exceeding the timeout yields an error wrapping [ErrTimeout]. Cancellation
// of ctx is reported as ctx.Err().
func (e *Executor) Run(ctx context.Context, name string, args ...string) ExecResult {
	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if e.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderr, e.Tee)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Err = fmt.Errorf("%s after %v: %w", name, e.Timeout, ErrTimeout)
	default:
		res.Err = &ToolError{Tool: name, Stderr: res.Stderr, Err: err}
	}
	return res
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
