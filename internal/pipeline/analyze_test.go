package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ranjanmadhu/pdf-compressor/internal/logging"
	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
	"github.com/ranjanmadhu/pdf-compressor/internal/term"
)

func TestComputeIQR(t *testing.T) {
	if ComputeIQR([]float64{1, 2, 3}).Valid {
		t.Error("fewer than four values should be invalid")
	}

	b := ComputeIQR([]float64{10, 11, 12, 13, 14, 15, 16, 17})
	if !b.Valid {
		t.Fatal("bounds should be valid")
	}
	cases := []struct {
		v    float64
		want string
	}{
		{13, ClassNormal},
		{23, ClassOutlier},
		{40, ClassExtreme},
		{0, ClassNormal},
	}
	for _, tc := range cases {
		if got := b.Classify(tc.v); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q (bounds %+v)", tc.v, got, tc.want, b)
		}
	}
}

func TestPercentile(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	if got := percentile(s, 50); got != 3 {
		t.Errorf("p50 = %v", got)
	}
	if got := percentile(s, 25); got != 2 {
		t.Errorf("p25 = %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty = %v", got)
	}
}

func TestAnalyze_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf", "1.4", 100)
	writePDF(t, dir, "b.pdf", "1.7", 200)
	if err := os.WriteFile(filepath.Join(dir, "fake.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Analyze(context.Background(), dir, AnalyzeOptions{}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Files) != 2 || a.Skipped != 1 {
		t.Fatalf("files=%d skipped=%d", len(a.Files), a.Skipped)
	}
	if a.PerPage {
		t.Error("page counts are unknown without a runner")
	}
	if a.Files[1].Version != "1.7" {
		t.Errorf("version = %q", a.Files[1].Version)
	}
}

// pageRunner answers pdfcpu info with ten pages per file, or one page for
// files named heavy*.
type pageRunner struct{}

func (pageRunner) Run(_ context.Context, _ string, args ...string) pdftool.ExecResult {
	path := args[len(args)-1]
	if _, err := os.Stat(path); err != nil {
		return pdftool.ExecResult{Err: err}
	}
	pages := 10
	if strings.HasPrefix(filepath.Base(path), "heavy") {
		pages = 1
	}
	js := fmt.Sprintf(`{"infos":[{"source":%q,"version":"1.7","pageCount":%d,"title":"t","encrypted":false}]}`, path, pages)
	return pdftool.ExecResult{Stdout: js}
}

func TestAnalyze_FlagsHeavyPages(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		writePDF(t, dir, fmt.Sprintf("doc%d.pdf", i), "1.7", 10000+i*100)
	}
	writePDF(t, dir, "heavy.pdf", "1.7", 10000)

	a, err := Analyze(context.Background(), dir, AnalyzeOptions{Runner: pageRunner{}}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if !a.PerPage {
		t.Fatal("expected per-page statistics")
	}
	_, extremes := a.Outliers()
	if extremes != 1 {
		t.Errorf("extremes = %d, want 1", extremes)
	}

	var out bytes.Buffer
	PrintAnalysis(&out, a, term.Palette{}, logging.Discard())
	if !strings.Contains(out.String(), "heavy.pdf") || !strings.Contains(out.String(), "[!]") {
		t.Errorf("table:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "metadata") {
		t.Errorf("metadata note missing:\n%s", out.String())
	}
}

func writePDF(t *testing.T, dir, name, version string, size int) {
	t.Helper()
	head := "%PDF-" + version + "\n"
	body := head + strings.Repeat("x", max(0, size-len(head)))
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
