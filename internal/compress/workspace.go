package compress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrWorkspace wraps failures creating or populating a workspace.
var ErrWorkspace = errors.New("workspace")

// Artifact is a document snapshot on disk plus its size, measured once.
type Artifact struct {
	Path string
	Size int64
}

// Measure stats path and returns it as an Artifact.
func Measure(path string) (Artifact, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: path, Size: fi.Size()}, nil
}

// ReadAll returns the artifact's bytes.
func (a Artifact) ReadAll() ([]byte, error) {
	return os.ReadFile(a.Path)
}

// Workspace is a private directory holding the intermediate artifacts of a
// single compression. Names are uuid-based so concurrent compressions in one
// process never collide. Not safe for concurrent use.
type Workspace struct {
	dir string
	seq int
}

// NewWorkspace creates a fresh workspace under base (os.TempDir() when empty).
func NewWorkspace(base string) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "pdfcompress-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Import copies src into the workspace as the initial artifact.
func (w *Workspace) Import(src string) (Artifact, error) {
	in, err := os.Open(src)
	if err != nil {
		return Artifact{}, err
	}
	defer in.Close()

	path := filepath.Join(w.dir, "00-source.pdf")
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return Artifact{}, fmt.Errorf("%w: copy source: %v", ErrWorkspace, err)
	}
	if err := out.Close(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	return Measure(path)
}

// Write stores data as the next artifact, named after stage.
func (w *Workspace) Write(stage string, data []byte) (Artifact, error) {
	w.seq++
	path := filepath.Join(w.dir, fmt.Sprintf("%02d-%s.pdf", w.seq, stage))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Artifact{}, err
	}
	return Measure(path)
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}
