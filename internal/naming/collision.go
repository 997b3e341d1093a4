package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Claims hands out output paths for one batch run so that no two inputs
// write the same file. Inputs collide when, for example, report.pdf and
// report-compressed.pdf sit in one directory: the suffix is never doubled,
// so both want report-compressed.pdf. The later claimant gets
// report-compressed-dup1.pdf. Safe for concurrent use.
type Claims struct {
	mu    sync.Mutex
	owner map[string]string // output path -> input
}

// NewClaims returns an empty claim table.
func NewClaims() *Claims {
	return &Claims{owner: make(map[string]string)}
}

// Claim reserves want for input and returns the cleaned path to write. A
// path already held by input is returned again. renamed is true when a
// "-dupN" variant was substituted.
func (c *Claims) Claim(input, want string) (path string, renamed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want = filepath.Clean(want)
	if c.take(input, want) {
		return want, false
	}
	for n := 1; ; n++ {
		alt := DupPath(want, n)
		if c.take(input, alt) {
			return alt, true
		}
	}
}

// take claims p for input when it is free or already input's.
func (c *Claims) take(input, p string) bool {
	if owner, held := c.owner[p]; held && owner != input {
		return false
	}
	c.owner[p] = input
	return true
}

// Len reports how many output paths have been claimed.
func (c *Claims) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owner)
}

// DupPath inserts "-dup<n>" before the extension of path.
func DupPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-dup%d%s", strings.TrimSuffix(path, ext), n, ext)
}
