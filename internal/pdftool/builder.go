package pdftool

import (
	"sort"
	"strconv"
	"strings"
)

// InfoArgs returns pdfcpu arguments printing document info as JSON.
func InfoArgs(in string) []string {
	return []string{"info", "-json", in}
}

// OptimizeArgs returns pdfcpu arguments rewriting in to out with unused
// objects dropped and duplicate resources merged.
func OptimizeArgs(in, out string) []string {
	return []string{"optimize", in, out}
}

// ExtractImagesArgs returns pdfcpu arguments extracting every embedded
// image of in into dir.
func ExtractImagesArgs(in, dir string) []string {
	return []string{"extract", "-mode", "image", in, dir}
}

// UpdateImageArgs returns pdfcpu arguments replacing the image with the
// given id on page with the contents of image.
func UpdateImageArgs(in, image, out string, page int, id string) []string {
	return []string{"images", "update", in, image, out, strconv.Itoa(page), id}
}

// RemoveAnnotationsArgs returns pdfcpu arguments removing all annotations.
func RemoveAnnotationsArgs(in, out string) []string {
	return []string{"annotations", "remove", in, out}
}

// GhostscriptParams describes one pdfwrite pass.
type GhostscriptParams struct {
	Input     string
	Output    string
	Preset    string // PDFSETTINGS value, e.g. "/ebook".
	Grayscale bool
	// Pdfmark is an optional PostScript file appended after Input, used to
	// overwrite the document info dictionary.
	Pdfmark string
}

// BuildGhostscript constructs the complete gs argument slice for a pdfwrite
// pass. The retry state supplies interpreter and font fixes applied after
// earlier failures.
func BuildGhostscript(p GhostscriptParams, rs *RetryState) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args,
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.5",
		"-dNOPAUSE", "-dQUIET", "-dBATCH", "-dSAFER",
	)

	if p.Preset != "" {
		args = append(args, "-dPDFSETTINGS="+p.Preset)
	}
	args = append(args,
		"-dDetectDuplicateImages=true",
		"-dCompressFonts=true",
	)

	if p.Grayscale {
		args = append(args,
			"-sColorConversionStrategy=Gray",
			"-dProcessColorModel=/DeviceGray",
			"-dOverrideICC",
		)
	}

	// --- Retry fixes ---
	if rs != nil {
		if rs.LegacyInterpreter {
			args = append(args, "-dNEWPDF=false")
		}
		if !rs.EmbedFonts {
			args = append(args, "-dEmbedAllFonts=false", "-dSubsetFonts=true")
		}
	}

	// --- Output and inputs ---
	args = append(args, "-sOutputFile="+p.Output, "-f", p.Input)
	if p.Pdfmark != "" {
		args = append(args, p.Pdfmark)
	}
	return args
}

// DocInfoPdfmark returns a PostScript program setting the document info
// dictionary to fields. Keys are emitted in sorted order so the output is
// stable.
func DocInfoPdfmark(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("[")
	for _, k := range keys {
		b.WriteString(" /")
		b.WriteString(k)
		b.WriteString(" (")
		b.WriteString(escapePSString(fields[k]))
		b.WriteString(")")
	}
	b.WriteString(" /DOCINFO pdfmark\n")
	return b.String()
}

var psEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\n", `\n`, "\r", `\r`)

func escapePSString(s string) string {
	return psEscaper.Replace(s)
}
