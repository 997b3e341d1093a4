package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultSuffix is inserted before the extension of derived output names.
const DefaultSuffix = "-compressed"

// SuffixPath inserts suffix between the stem and the extension of path.
// A path whose stem already ends in suffix is returned unchanged.
func SuffixPath(path, suffix string) string {
	if suffix == "" || HasSuffix(path, suffix) {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// HasSuffix reports whether the stem of path ends in suffix.
func HasSuffix(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem != suffix && strings.HasSuffix(stem, suffix)
}

// DefaultFileOutput returns the output path used when a single input file is
// given without an explicit output: the input's sibling with DefaultSuffix.
func DefaultFileOutput(input string) string {
	return SuffixPath(input, DefaultSuffix)
}

// MirrorPath maps path, which must live under inputRoot, to the same
// relative location under outputRoot with suffix applied to the file name.
//
//	MirrorPath("/in", "/out", "/in/a/b.pdf", "-compressed") → "/out/a/b-compressed.pdf"
func MirrorPath(inputRoot, outputRoot, path, suffix string) (string, error) {
	rel, err := filepath.Rel(inputRoot, path)
	if err != nil {
		return "", fmt.Errorf("mirror %s: %w", path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("mirror %s: not under %s", path, inputRoot)
	}
	return SuffixPath(filepath.Join(outputRoot, rel), suffix), nil
}
