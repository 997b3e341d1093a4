package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ranjanmadhu/pdf-compressor/internal/config"
)

func TestResolve(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	noEnv := func(string) string { return "" }

	tests := []struct {
		name string
		mode config.ColorMode
		want bool
	}{
		{"always", config.ColorAlways, true},
		{"never", config.ColorNever, false},
		{"auto on a regular file", config.ColorAuto, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.mode, f, noEnv); got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestIsTerminal_Nil(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("IsTerminal(nil) should be false")
	}
}

func TestPaletteEnabled(t *testing.T) {
	if (Palette{}).Enabled() {
		t.Error("empty palette should be disabled")
	}
	if !Colors.Enabled() {
		t.Error("Colors should be enabled")
	}
	if NewPalette(config.ColorNever).Enabled() {
		t.Error("ColorNever should give an empty palette")
	}
}
