package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ranjanmadhu/pdf-compressor/internal/term"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"scanned report 12 MiB", 12 * 1024 * 1024, "12.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"negative", -2048, "-2.0 KiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"positive", 1024 * 1024, "+ 1.0 MiB"},
		{"negative", -1024 * 1024, "- 1.0 MiB"},
		{"zero", 0, "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytesWithSign(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytesWithSign(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatSizeChange(t *testing.T) {
	tests := []struct {
		name          string
		input, output int64
		want          string
	}{
		{"shrunk", 2048, 1024, "2.0 KiB -> 1.0 KiB (- 1.0 KiB)"},
		{"grew", 1024, 2048, "1.0 KiB -> 2.0 KiB (+ 1.0 KiB)"},
		{"unchanged", 100, 100, "100 B -> 100 B (0 B)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSizeChange(tt.input, tt.output); got != tt.want {
				t.Errorf("FormatSizeChange(%d, %d) = %q, want %q", tt.input, tt.output, got, tt.want)
			}
		})
	}
}

func TestPrintBanner(t *testing.T) {
	var plain, colored bytes.Buffer
	PrintBanner(&plain, term.Palette{}, "1.2.3")
	PrintBanner(&colored, term.Colors, "1.2.3")

	if strings.Contains(plain.String(), "\033[") {
		t.Error("plain banner contains escape sequences")
	}
	if !strings.Contains(plain.String(), "v1.2.3") {
		t.Errorf("banner missing version: %q", plain.String())
	}
	if !strings.HasPrefix(colored.String(), term.Colors.Magenta) {
		t.Error("colored banner should start with magenta")
	}
}
