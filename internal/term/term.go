// Package term resolves ANSI color state and terminal detection.
//
// Colors live in a [Palette] value rather than package globals because the
// logger is shared by concurrent batch workers and the HTTP server. A
// disabled palette holds empty strings, so concatenation is a no-op.
package term

import (
	"os"
	"strings"

	"github.com/ranjanmadhu/pdf-compressor/internal/config"
)

// Palette holds the ANSI sequences used for log levels and the banner.
type Palette struct {
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Cyan    string
	Magenta string
	NC      string // Reset sequence.
}

// Enabled reports whether p carries real escape sequences.
func (p Palette) Enabled() bool { return p.NC != "" }

// Colors is the palette used when color output is on.
var Colors = Palette{
	Red:     "\033[1;91m",
	Green:   "\033[1;92m",
	Yellow:  "\033[1;93m",
	Blue:    "\033[1;94m",
	Cyan:    "\033[1;96m",
	Magenta: "\033[1;95m",
	NC:      "\033[0m",
}

// NewPalette returns [Colors] or an empty palette depending on mode.
func NewPalette(mode config.ColorMode) Palette {
	if Resolve(mode, os.Stdout, os.Getenv) {
		return Colors
	}
	return Palette{}
}

// Resolve determines whether colors should be enabled from the configured
// mode, TTY detection on out, and the NO_COLOR env var (https://no-color.org).
func Resolve(mode config.ColorMode, out *os.File, getenv func(string) string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(out) &&
			getenv("NO_COLOR") == "" &&
			strings.ToLower(getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
