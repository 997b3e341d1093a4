package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
	"github.com/ranjanmadhu/pdf-compressor/internal/display"
	"github.com/ranjanmadhu/pdf-compressor/internal/naming"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

// ErrInputDirNotFound is returned when the batch root does not exist.
var ErrInputDirNotFound = fmt.Errorf("input directory not found: %w", fs.ErrNotExist)

// Logger is the subset of logging.Logger the batch driver uses.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Compressor compresses one file. *compress.Compressor satisfies it.
type Compressor interface {
	Compress(ctx context.Context, inputPath, outputPath string, override options.Override) (*compress.CompressionResult, error)
}

// Journal remembers per-file outcomes across runs.
type Journal interface {
	// Completed reports whether input, in the state described by fi, was
	// already compressed to an output that still exists.
	Completed(input string, fi fs.FileInfo) (output string, ok bool)
	Record(input string, fi fs.FileInfo, output string, res *compress.CompressionResult, failure error) error
}

// Uploader mirrors finished outputs to remote storage under key.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) error
}

// RunOptions configures one ProcessDirectory call.
type RunOptions struct {
	Recursive bool
	Progress  ProgressFunc
	Workers   int // Files compressed in parallel; values below 1 mean 1.
}

// Batch applies a Compressor to every PDF under a directory.
type Batch struct {
	comp     Compressor
	log      Logger
	journal  Journal
	uploader Uploader
	suffix   string
	override options.Override
}

// BatchOption customizes a Batch.
type BatchOption func(*Batch)

// WithJournal enables skipping files a previous run already finished.
func WithJournal(j Journal) BatchOption { return func(b *Batch) { b.journal = j } }

// WithUploader uploads each successful output.
func WithUploader(u Uploader) BatchOption { return func(b *Batch) { b.uploader = u } }

// WithSuffix sets the suffix inserted into output file names.
func WithSuffix(s string) BatchOption { return func(b *Batch) { b.suffix = s } }

// WithOverride applies ov to every file of the batch.
func WithOverride(ov options.Override) BatchOption { return func(b *Batch) { b.override = ov } }

// NewBatch returns a batch driver using c. The default suffix is
// naming.DefaultSuffix.
func NewBatch(c Compressor, log Logger, opts ...BatchOption) *Batch {
	b := &Batch{comp: c, log: log, suffix: naming.DefaultSuffix}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ProcessDirectory compresses every PDF under inputDir into the mirrored
// location under outputDir (inputDir itself when empty). Per-file failures
// are recorded in the result and never returned. When ctx is cancelled,
// files already started run to completion, the rest are counted as skipped
// and the result is marked Cancelled.
func (b *Batch) ProcessDirectory(ctx context.Context, inputDir, outputDir string, ro RunOptions) (*BatchResult, error) {
	fi, err := os.Stat(inputDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrInputDirNotFound, inputDir)
	case err != nil:
		return nil, err
	case !fi.IsDir():
		return nil, fmt.Errorf("%s is not a directory", inputDir)
	}
	if outputDir == "" {
		outputDir = inputDir
	}

	dopts := DiscoverOptions{Recursive: ro.Recursive}
	if within(inputDir, outputDir) {
		dopts.ExcludeSuffix = b.suffix
	}
	files, err := Discover(inputDir, dopts)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", inputDir, err)
	}

	result := newBatchResult()
	if len(files) == 0 {
		b.log.Warn("No PDF files found in %s", inputDir)
		return result, nil
	}
	b.log.Info("Found %d PDF files in %s", len(files), inputDir)

	notifier := NewNotifier(b.log)
	if err := notifier.Subscribe(b.logProgress); err != nil {
		return nil, err
	}
	if ro.Progress != nil {
		if err := notifier.Subscribe(ro.Progress); err != nil {
			return nil, err
		}
	}

	workers := ro.Workers
	if workers < 1 {
		workers = 1
	}
	// A file is announced only once a worker slot is free, so a cancel
	// that lands while every slot is busy leaves the next file unstarted.
	var g errgroup.Group
	slots := make(chan struct{}, workers)

	records := make([]FileRecord, len(files))
	started := make([]bool, len(files))
	claims := naming.NewClaims()
	// Files that have started are allowed to finish after cancellation.
	inflight := context.WithoutCancel(ctx)

	cancelled := false
	for i, path := range files {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		notifier.Notify(newProgress(path, i, len(files)))

		dest, err := naming.MirrorPath(inputDir, outputDir, path, b.suffix)
		if err != nil {
			<-slots
			started[i] = true
			records[i] = failed(path, "", err)
			b.log.Error("%s: %v", path, err)
			continue
		}
		if alt, renamed := claims.Claim(path, dest); renamed {
			b.log.Warn("%s: %s is taken by another input, writing %s", filepath.Base(path), filepath.Base(dest), filepath.Base(alt))
			dest = alt
		}
		key := uploadKey(outputDir, dest)

		started[i] = true
		g.Go(func() error {
			defer func() { <-slots }()
			records[i] = b.processFile(inflight, path, dest, key)
			return nil
		})
	}
	_ = g.Wait()

	for i := range files {
		if !started[i] {
			result.FilesSkipped++
			continue
		}
		result.fold(records[i])
	}
	result.Cancelled = cancelled
	if cancelled {
		b.log.Warn("Interrupted: %d files not started", len(files)-countTrue(started))
	}

	b.logSummary(result)
	return result, nil
}

// processFile runs one file end to end. It never panics the batch and
// always returns a record.
func (b *Batch) processFile(ctx context.Context, path, dest, key string) (rec FileRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = failed(path, dest, fmt.Errorf("panic: %v", r))
			b.log.Error("%s: %v", filepath.Base(path), rec.err)
		}
	}()

	fi, err := os.Stat(path)
	if err != nil {
		b.log.Error("%s: %v", filepath.Base(path), err)
		return failed(path, dest, err)
	}

	if b.journal != nil {
		if out, ok := b.journal.Completed(path, fi); ok {
			b.log.Info("Skip (already compressed): %s", filepath.Base(path))
			return FileRecord{Path: path, OutputPath: out, Status: StatusSkipped}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		b.log.Error("Cannot create output directory: %v", err)
		b.record(path, fi, dest, nil, err)
		return failed(path, dest, err)
	}

	res, err := b.comp.Compress(ctx, path, dest, b.override)
	if err != nil {
		b.log.Error("Failed: %s: %v", filepath.Base(path), err)
		b.record(path, fi, dest, nil, err)
		return failed(path, dest, err)
	}

	line := fmt.Sprintf("%s: %s, %s", filepath.Base(path),
		display.FormatSizeChange(res.InputSize, res.OutputSize), res.PercentReduction)
	if res.Inflated() {
		b.log.Warn("%s", line)
	} else {
		b.log.Success("%s", line)
	}
	b.record(path, fi, dest, res, nil)

	rec = FileRecord{Path: path, OutputPath: dest, Status: StatusSucceeded, Result: res}
	if b.uploader != nil {
		if err := b.uploader.Upload(ctx, dest, key); err != nil {
			b.log.Warn("Upload of %s failed: %v", filepath.Base(dest), err)
		} else {
			rec.Uploaded = key
			b.log.Debug("Uploaded %s", key)
		}
	}
	return rec
}

func (b *Batch) record(path string, fi fs.FileInfo, dest string, res *compress.CompressionResult, failure error) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Record(path, fi, dest, res, failure); err != nil {
		b.log.Warn("Journal write for %s failed: %v", filepath.Base(path), err)
	}
}

func (b *Batch) logProgress(p Progress) error {
	b.log.Info("%s", p)
	return nil
}

func (b *Batch) logSummary(r *BatchResult) {
	b.log.Info("==============================")
	b.log.Info("Done: %d succeeded, %d failed, %d skipped", r.FilesSucceeded, r.FilesFailed, r.FilesSkipped)
	b.log.Info("  Total files processed: %d", r.FilesProcessed)

	if r.TotalSavings >= 0 {
		b.log.Success("  Total space saved: %s (%s, input %s -> output %s)",
			display.FormatBytes(r.TotalSavings),
			r.PercentReduction,
			display.FormatBytes(r.TotalInputSize),
			display.FormatBytes(r.TotalOutputSize))
	} else {
		b.log.Warn("  Total space saved: %s (overall output is larger)",
			display.FormatBytes(r.TotalSavings))
	}
}

func failed(path, dest string, err error) FileRecord {
	return FileRecord{Path: path, OutputPath: dest, Status: StatusFailed, Error: err.Error(), err: err}
}

// within reports whether dir is root or lies under it.
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// uploadKey is dest relative to the output root, slash separated.
func uploadKey(outputRoot, dest string) string {
	rel, err := filepath.Rel(outputRoot, dest)
	if err != nil {
		return filepath.ToSlash(filepath.Base(dest))
	}
	return filepath.ToSlash(rel)
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
