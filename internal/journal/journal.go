// Package journal records per-file compression outcomes in a pebble store so
// an interrupted or repeated batch can skip files that are already done.
//
// Entries are keyed by absolute input path and hold the input's size and
// modification time at compression. A file counts as done only while those
// still match and the recorded output still exists.
package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	pebble "github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
)

const (
	keyPrefix = "file/"
	keyLimit  = "file0" // First key past every keyPrefix key.
)

// Status of a journal entry.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Entry is one recorded outcome.
type Entry struct {
	Input      string    `json:"input"`
	Output     string    `json:"output,omitempty"`
	Status     Status    `json:"status"`
	Size       int64     `json:"size"`
	ModTime    int64     `json:"modTimeUnixNano"`
	OutputSize int64     `json:"outputSize,omitempty"`
	Percent    string    `json:"percentReduction,omitempty"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Journal is a pebble-backed outcome store. It is safe for concurrent use.
type Journal struct {
	db  *pebble.DB
	now func() time.Time
}

// Open opens or creates a journal in dir.
func Open(dir string) (*Journal, error) {
	return open(dir, &pebble.Options{})
}

// OpenInMemory returns a journal backed by an in-memory filesystem.
func OpenInMemory() (*Journal, error) {
	return open("journal", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Journal, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dir, err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close flushes and closes the store.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

func key(input string) []byte {
	if abs, err := filepath.Abs(input); err == nil {
		input = abs
	}
	return []byte(keyPrefix + input)
}

// Put stores e, replacing any previous entry for the same input.
func (j *Journal) Put(e Entry) error {
	data, err := sonic.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	return j.db.Set(key(e.Input), data, pebble.Sync)
}

// Get returns the entry for input. ok is false when none is recorded.
func (j *Journal) Get(input string) (e Entry, ok bool, err error) {
	data, closer, err := j.db.Get(key(input))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	defer closer.Close()

	if err := sonic.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode journal entry: %w", err)
	}
	return e, true, nil
}

// Delete forgets input.
func (j *Journal) Delete(input string) error {
	return j.db.Delete(key(input), pebble.Sync)
}

// List returns every entry in key order. Undecodable entries are skipped.
func (j *Journal) List() ([]Entry, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyLimit),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := sonic.Unmarshal(iter.Value(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, iter.Error()
}

// Prune removes entries recorded before now-maxAge and returns how many
// were removed.
func (j *Journal) Prune(maxAge time.Duration) (int, error) {
	cutoff := j.now().Add(-maxAge)
	entries, err := j.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.RecordedAt.Before(cutoff) {
			continue
		}
		if err := j.Delete(e.Input); err != nil {
			return n, fmt.Errorf("prune %s: %w", e.Input, err)
		}
		n++
	}
	return n, nil
}

// Completed reports whether input, whose current state is fi, was already
// compressed and its output is still on disk.
func (j *Journal) Completed(input string, fi fs.FileInfo) (string, bool) {
	e, ok, err := j.Get(input)
	if err != nil || !ok || e.Status != StatusDone {
		return "", false
	}
	if e.Size != fi.Size() || e.ModTime != fi.ModTime().UnixNano() {
		return "", false
	}
	if _, err := os.Stat(e.Output); err != nil {
		return "", false
	}
	return e.Output, true
}

// Record stores the outcome of compressing input. res is nil when failure
// is set.
func (j *Journal) Record(input string, fi fs.FileInfo, output string, res *compress.CompressionResult, failure error) error {
	e := Entry{
		Input:      input,
		Output:     output,
		Size:       fi.Size(),
		ModTime:    fi.ModTime().UnixNano(),
		RecordedAt: j.now(),
	}
	switch {
	case failure != nil:
		e.Status = StatusFailed
		e.Error = failure.Error()
	case res != nil:
		e.Status = StatusDone
		e.OutputSize = res.OutputSize
		e.Percent = res.PercentReduction
	default:
		return errors.New("record needs a result or a failure")
	}
	return j.Put(e)
}
