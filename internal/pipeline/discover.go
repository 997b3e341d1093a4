package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ranjanmadhu/pdf-compressor/internal/naming"
)

// pdfExt is matched case-insensitively against file names.
const pdfExt = ".pdf"

// DiscoverOptions controls directory traversal.
type DiscoverOptions struct {
	Recursive bool
	// ExcludeSuffix skips files whose stem already ends in it. Used for
	// in-place runs so outputs from an earlier run are not recompressed.
	ExcludeSuffix string
}

// dirFrame is one directory on the traversal stack and how far through its
// listing we are.
type dirFrame struct {
	path    string
	entries []os.DirEntry
	next    int
}

// Discover lists PDF files under root depth-first in directory-listing
// order. Subdirectories are entered where they appear in their parent's
// listing, using an explicit stack rather than recursion so deep trees
// cannot exhaust the call stack.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var files []string
	stack := []*dirFrame{{path: root, entries: entries}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++
		path := filepath.Join(top.path, e.Name())

		if e.IsDir() {
			if !opts.Recursive {
				continue
			}
			sub, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &dirFrame{path: path, entries: sub})
			continue
		}
		if !e.Type().IsRegular() || !isPDF(e.Name()) {
			continue
		}
		if naming.HasSuffix(path, opts.ExcludeSuffix) {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), pdfExt)
}
