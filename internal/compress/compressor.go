package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
	"github.com/ranjanmadhu/pdf-compressor/internal/planner"
)

// Sentinel errors for the fatal tier. Stage failures never surface here.
var (
	ErrInputNotFound = fmt.Errorf("input not found: %w", fs.ErrNotExist)
	ErrOutput        = errors.New("write output")
)

// Logger is the minimal logging interface needed by the compressor and its
// stages.
type Logger interface {
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

// Deps are the collaborators a Compressor drives. Nil codecs default to
// [codec.Passthrough].
type Deps struct {
	Docs    codec.DocumentCodec
	Images  codec.ImageCodec
	Log     Logger
	TempDir string // Parent of per-call workspaces; empty means os.TempDir().
}

// Compressor runs the stage pipeline on single files. It is safe for
// concurrent use: each call snapshots the options and gets its own
// workspace.
type Compressor struct {
	mu   sync.RWMutex
	opts options.Options

	docs    codec.DocumentCodec
	stages  []Stage
	log     Logger
	tempDir string
}

// New returns a Compressor with base options opts.
func New(opts options.Options, deps Deps) *Compressor {
	if deps.Docs == nil {
		deps.Docs = codec.Passthrough{}
	}
	if deps.Images == nil {
		deps.Images = codec.Passthrough{}
	}
	if deps.Log == nil {
		deps.Log = nopLogger{}
	}
	return &Compressor{
		opts:    opts,
		docs:    deps.Docs,
		stages:  NewStages(deps.Docs, deps.Images, deps.Log),
		log:     deps.Log,
		tempDir: deps.TempDir,
	}
}

// Options returns the current base options.
func (c *Compressor) Options() options.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// SetOptions merges o into the base options. Calls already running keep
// the snapshot they started with.
func (c *Compressor) SetOptions(o options.Override) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.opts.Merge(o)
	if err := next.Validate(); err != nil {
		return err
	}
	c.opts = next
	return nil
}

// Capabilities reports what the document codec can do.
func (c *Compressor) Capabilities() codec.Capabilities {
	return c.docs.Capabilities()
}

// Compress runs the pipeline on inputPath and writes the result to
// outputPath, creating parent directories. override is merged over the base
// options for this call only.
func (c *Compressor) Compress(ctx context.Context, inputPath, outputPath string, override options.Override) (*CompressionResult, error) {
	start := time.Now()

	opts := c.Options().Merge(override)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fi, err := os.Stat(inputPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	case err != nil:
		return nil, err
	case fi.IsDir():
		return nil, fmt.Errorf("%s is a directory", inputPath)
	}

	ws, err := NewWorkspace(c.tempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			c.log.Warn("Could not remove workspace %s: %v", ws.Dir(), err)
		}
	}()

	initial, err := ws.Import(inputPath)
	if err != nil {
		return nil, err
	}

	plan := planner.BuildPlan(opts, c.docs.Capabilities())
	final, outcomes := c.runStages(ctx, initial, ws, plan)

	if err := publish(final, outputPath); err != nil {
		return nil, err
	}
	out, err := Measure(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutput, err)
	}

	res := NewResult(inputPath, outputPath, initial.Size, out.Size)
	for _, o := range outcomes {
		res.Stages = append(res.Stages, reportOf(o))
	}
	res.CapabilityGaps = plan.Gaps()
	res.Duration = time.Since(start)

	if res.Inflated() {
		c.log.Warn("Output is larger than input: %s (%s)", filepath.Base(outputPath), res.PercentReduction)
	}
	return res, nil
}

// runStages threads the artifact through every stage in order.
func (c *Compressor) runStages(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) (Artifact, []StageOutcome) {
	cur := in
	outcomes := make([]StageOutcome, 0, len(c.stages))
	for _, st := range c.stages {
		o := st.Optimize(ctx, cur, ws, plan)
		if o.Artifact.Path == "" {
			// A stage must always hand something on.
			o.Artifact = cur
			o.Succeeded = false
		}
		switch {
		case o.Skipped:
			c.log.Debug("%s: skipped", o.Stage)
		case o.Succeeded:
			c.log.Debug("%s: %d -> %d bytes", o.Stage, cur.Size, o.Artifact.Size)
		}
		outcomes = append(outcomes, o)
		cur = o.Artifact
	}
	return cur, outcomes
}

// publish copies the final artifact next to dst and renames it into place,
// so a failed write never leaves a truncated output.
func publish(a Artifact, dst string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}
