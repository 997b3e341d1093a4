package pdftool

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrTimeout is returned when a tool call exceeds the executor timeout.
var ErrTimeout = errors.New("tool timed out")

// ToolError is returned by [Executor.Run] when a command exits non-zero.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := lastLine(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Pre-compiled regexes for classifying tool stderr. Encrypted and damaged
// files are terminal; the others map to a fix in [RetryState.Advance].
var (
	reEncrypted = regexp.MustCompile(
		`(?i)requires a password|password did not work|` +
			`this file is encrypted|encrypted pdf|` +
			`pdfcpu: please provide the correct password`)

	reDamaged = regexp.MustCompile(
		`(?i)xref table (is )?(broken|damaged)|` +
			`couldn't find trailer|unable to read xref|` +
			`can't find (the )?startxref|` +
			`pdfcpu: .*corrupt`)

	reInterpreterIssue = regexp.MustCompile(
		`(?i)\*\*\*\* Error: .*PDF interpreter|` +
			`NEWPDF|pdfi_|` +
			`Unrecoverable error, exit code`)

	reFontIssue = regexp.MustCompile(
		`(?i)Can't find \(or can't open\) font|` +
			`Unable to load font|` +
			`font .* could not be embedded|` +
			`invalidfont`)
)

// MatchEncrypted reports whether stderr says the file needs a password.
func MatchEncrypted(stderr string) bool {
	return reEncrypted.MatchString(stderr)
}

// MatchDamaged reports whether stderr describes a broken cross-reference table.
func MatchDamaged(stderr string) bool {
	return reDamaged.MatchString(stderr)
}

// MatchInterpreterIssue reports whether stderr points at the newer
// Ghostscript PDF interpreter.
func MatchInterpreterIssue(stderr string) bool {
	return reInterpreterIssue.MatchString(stderr)
}

// MatchFontIssue reports whether stderr contains a font loading error.
func MatchFontIssue(stderr string) bool {
	return reFontIssue.MatchString(stderr)
}
