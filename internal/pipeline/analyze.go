package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ranjanmadhu/pdf-compressor/internal/display"
	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
	"github.com/ranjanmadhu/pdf-compressor/internal/probe"
	"github.com/ranjanmadhu/pdf-compressor/internal/term"
)

// FileStat holds the probed per-file data for the analysis table.
type FileStat struct {
	Name      string
	Size      int64
	Version   string
	Pages     int // 0 when pdfcpu is unavailable.
	Encrypted bool
	Metadata  bool // Document info dictionary is populated.
}

// BytesPerPage is Size/Pages, or 0 when the page count is unknown.
func (f FileStat) BytesPerPage() float64 {
	if f.Pages <= 0 {
		return 0
	}
	return float64(f.Size) / float64(f.Pages)
}

// Analysis is the result of Analyze.
type Analysis struct {
	Files   []FileStat
	Skipped int
	Stats   IQRBounds // Over bytes per page when pages are known, else file size.
	PerPage bool
}

// AnalyzeOptions controls Analyze.
type AnalyzeOptions struct {
	Recursive bool
	// Runner probes with pdfcpu when set; otherwise only the header is read
	// and page counts are unknown.
	Runner pdftool.Runner
}

// Analyze discovers PDFs under root and probes each one. Files that cannot
// be read are counted in Skipped.
func Analyze(ctx context.Context, root string, opts AnalyzeOptions, log Logger) (*Analysis, error) {
	files, err := Discover(root, DiscoverOptions{Recursive: opts.Recursive})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	a := &Analysis{}
	if len(files) == 0 {
		log.Warn("No PDF files found in %s", root)
		return a, nil
	}
	log.Info("Analyzing %d files in %s", len(files), root)

	isTTY := term.IsTerminal(os.Stdout)
	for i, path := range files {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(os.Stdout)
			}
			log.Warn("Interrupted")
			break
		}
		if isTTY {
			printProgress(os.Stdout, i+1, len(files), a.Skipped, filepath.Base(path))
		}

		fs, err := statFile(ctx, opts.Runner, path)
		if err != nil {
			a.Skipped++
			if isTTY {
				clearProgress(os.Stdout)
			}
			log.Warn("Skip (%v): %s", err, filepath.Base(path))
			continue
		}
		a.Files = append(a.Files, fs)
	}
	if isTTY {
		clearProgress(os.Stdout)
	}

	var perPage, sizes []float64
	for _, f := range a.Files {
		if v := f.BytesPerPage(); v > 0 {
			perPage = append(perPage, v)
		}
		sizes = append(sizes, float64(f.Size))
	}
	if len(perPage) == len(a.Files) && len(perPage) > 0 {
		a.PerPage = true
		a.Stats = ComputeIQR(perPage)
	} else {
		a.Stats = ComputeIQR(sizes)
	}
	return a, nil
}

func statFile(ctx context.Context, r pdftool.Runner, path string) (FileStat, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileStat{}, err
	}
	version, err := probe.SniffHeader(path)
	if err != nil {
		return FileStat{}, err
	}
	fs := FileStat{Name: filepath.Base(path), Size: fi.Size(), Version: version}
	if r == nil {
		return fs, nil
	}
	pr, err := probe.Probe(ctx, r, path)
	if err != nil {
		return FileStat{}, err
	}
	fs.Pages = pr.PageCount
	fs.Encrypted = pr.Encrypted
	fs.Metadata = !pr.Info.Empty()
	if pr.Version != "" {
		fs.Version = pr.Version
	}
	return fs, nil
}

// value is the statistic a row is classified on.
func (a *Analysis) value(f FileStat) float64 {
	if a.PerPage {
		return f.BytesPerPage()
	}
	return float64(f.Size)
}

// Outliers counts rows flagged as outlier and extreme.
func (a *Analysis) Outliers() (outliers, extremes int) {
	for _, f := range a.Files {
		switch a.Stats.Classify(a.value(f)) {
		case ClassExtreme:
			extremes++
		case ClassOutlier:
			outliers++
		}
	}
	return outliers, extremes
}

// Outlier classes returned by IQRBounds.Classify.
const (
	ClassNormal  = ""
	ClassOutlier = "outlier"
	ClassExtreme = "extreme"
)

// IQRBounds holds the IQR-based thresholds for outlier classification.
type IQRBounds struct {
	Q1, Q3    float64
	OutlierLo float64 // Q1 - 1.5*IQR
	OutlierHi float64 // Q3 + 1.5*IQR
	ExtremeLo float64 // Q1 - 3.0*IQR
	ExtremeHi float64 // Q3 + 3.0*IQR
	Valid     bool
}

// ComputeIQR needs at least four values; fewer give invalid bounds that
// classify everything as normal.
func ComputeIQR(vals []float64) IQRBounds {
	if len(vals) < 4 {
		return IQRBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return IQRBounds{
		Q1:        q1,
		Q3:        q3,
		OutlierLo: q1 - 1.5*iqr,
		OutlierHi: q3 + 1.5*iqr,
		ExtremeLo: q1 - 3.0*iqr,
		ExtremeHi: q3 + 3.0*iqr,
		Valid:     iqr > 0,
	}
}

// Classify returns ClassNormal, ClassOutlier or ClassExtreme for v.
func (b IQRBounds) Classify(v float64) string {
	if !b.Valid || v <= 0 {
		return ClassNormal
	}
	if v < b.ExtremeLo || v > b.ExtremeHi {
		return ClassExtreme
	}
	if v < b.OutlierLo || v > b.OutlierHi {
		return ClassOutlier
	}
	return ClassNormal
}

// PrintAnalysis writes the table and summary. Heavy outliers are the best
// candidates for compression.
func PrintAnalysis(w io.Writer, a *Analysis, colors term.Palette, log Logger) {
	if len(a.Files) == 0 {
		log.Warn("No files could be probed")
		return
	}

	nameW, verW, sizeW, pagesW, bppW := len("File"), len("Version"), len("Size"), len("Pages"), len("Per Page")
	for _, f := range a.Files {
		nameW = max(nameW, len(f.Name))
		verW = max(verW, len(f.Version))
		sizeW = max(sizeW, len(display.FormatBytes(f.Size)))
		pagesW = max(pagesW, len(pagesLabel(f.Pages)))
		bppW = max(bppW, len(perPageLabel(f)))
	}
	if nameW > 50 {
		nameW = 50
	}

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s",
		nameW, "File", verW, "Version", sizeW, "Size", pagesW, "Pages", bppW, "Per Page")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, f := range a.Files {
		name := f.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		class := a.Stats.Classify(a.value(f))

		// Pad the plain text first, then wrap in ANSI color, so escape bytes
		// don't count toward the column width.
		sizeCell := fmt.Sprintf("%-*s", sizeW, display.FormatBytes(f.Size))
		bppCell := fmt.Sprintf("%-*s", bppW, perPageLabel(f))
		if a.PerPage {
			bppCell = colorPad(colors, bppCell, class)
		} else {
			sizeCell = colorPad(colors, sizeCell, class)
		}

		var notes []string
		if f.Encrypted {
			notes = append(notes, "encrypted")
		}
		if f.Metadata {
			notes = append(notes, "metadata")
		}
		flag := formatFlag(colors, class)
		if len(notes) > 0 {
			flag = strings.TrimSpace(flag + " (" + strings.Join(notes, ", ") + ")")
		}

		fmt.Fprintf(w, "  %-*s  %-*s  %s  %-*s  %s  %s\n",
			nameW, name, verW, f.Version, sizeCell, pagesW, pagesLabel(f.Pages), bppCell, flag)
	}
	fmt.Fprintln(w)

	outliers, extremes := a.Outliers()
	log.Info("Analyzed %d files (%d skipped)", len(a.Files), a.Skipped)
	if a.Stats.Valid {
		unit := "size"
		if a.PerPage {
			unit = "bytes/page"
		}
		log.Info("  %s IQR: %s - %s (outlier above %s)", unit,
			display.FormatBytes(int64(a.Stats.Q1)), display.FormatBytes(int64(a.Stats.Q3)),
			display.FormatBytes(int64(a.Stats.OutlierHi)))
	}
	if outliers > 0 {
		log.Warn("  %d outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 {
		log.Success("  No outliers detected")
	}
}

func pagesLabel(n int) string {
	if n <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d", n)
}

func perPageLabel(f FileStat) string {
	v := f.BytesPerPage()
	if v <= 0 {
		return "n/a"
	}
	return display.FormatBytes(int64(v))
}

func formatFlag(c term.Palette, class string) string {
	switch class {
	case ClassExtreme:
		return c.Red + "[!]" + c.NC
	case ClassOutlier:
		return c.Yellow + "[*]" + c.NC
	default:
		return ""
	}
}

func colorPad(c term.Palette, padded, class string) string {
	switch class {
	case ClassExtreme:
		return c.Red + padded + c.NC
	case ClassOutlier:
		return c.Yellow + padded + c.NC
	default:
		return padded
	}
}

// printProgress shows a live probe counter as an inline \r-overwritten line.
func printProgress(w io.Writer, current, total, skipped int, name string) {
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}

	maxName := 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines, then \r.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(w, "\r%s", status)
}

func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
