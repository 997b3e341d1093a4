// Command pdfcompress is the CLI entrypoint for the batch PDF compressor.
//
// It parses flags, validates configuration, and then either runs system
// diagnostics (--check), a size analysis (--analyze), the HTTP API (serve),
// one of the maintenance subcommands (token, journal), or compresses a
// single file or a directory tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ranjanmadhu/pdf-compressor/internal/check"
	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
	"github.com/ranjanmadhu/pdf-compressor/internal/config"
	"github.com/ranjanmadhu/pdf-compressor/internal/display"
	"github.com/ranjanmadhu/pdf-compressor/internal/journal"
	"github.com/ranjanmadhu/pdf-compressor/internal/logging"
	"github.com/ranjanmadhu/pdf-compressor/internal/naming"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
	"github.com/ranjanmadhu/pdf-compressor/internal/pipeline"
	"github.com/ranjanmadhu/pdf-compressor/internal/server"
	"github.com/ranjanmadhu/pdf-compressor/internal/sink"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Bootstrap: no logger yet, errors go straight to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, args, version); err != nil {
		if errors.Is(err, config.ErrExit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "pdfcompress: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfcompress: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfcompress: %v\n", err)
		return 1
	}
	defer log.Close()

	// Nothing but the token is written to stdout.
	if cfg.Command == config.CommandToken && !cfg.CheckOnly {
		if err := issueToken(os.Stdout, &cfg); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	display.PrintBanner(os.Stdout, log.Colors(), version)

	// Cancel on SIGINT/SIGTERM: a batch stops dispatching new files and
	// the server shuts down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := check.SystemEnv(&cfg)
	if cfg.CheckOnly {
		if !check.RunCheck(ctx, env, log) {
			return 1
		}
		return 0
	}

	if cfg.Command == config.CommandJournal {
		return runJournal(os.Stdout, &cfg, log)
	}

	if cfg.Workers == 0 {
		cfg.Workers = check.DefaultWorkers()
	}

	if cfg.Analyze {
		return runAnalyze(ctx, &cfg, env, log)
	}

	backends, err := check.CheckDeps(env, cfg.Strict)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if !backends.Any() {
		log.Warn("Neither pdfcpu nor gs found; outputs will be unchanged copies")
	}
	comp := newCompressor(&cfg, env, backends, log)

	if cfg.Command == config.CommandServe {
		return runServe(ctx, &cfg, comp, log)
	}

	log.Info("=== pdfcompress v%s (%s) ===", version, commit)
	fi, err := os.Stat(cfg.Input)
	if err != nil {
		log.Error("Input not found: %s", cfg.Input)
		return 1
	}
	if fi.IsDir() {
		return runDirectory(ctx, &cfg, comp, log)
	}
	return runFile(ctx, &cfg, comp, log)
}

func newCompressor(cfg *config.Config, env check.Env, backends codec.Backends, log *logging.Logger) *compress.Compressor {
	var docs codec.DocumentCodec = codec.Passthrough{}
	if backends.Any() {
		docs = codec.NewToolCodec(env.Runner, backends, "", log)
	}
	return compress.New(cfg.Options, compress.Deps{
		Docs:   docs,
		Images: codec.NativeImageCodec{},
		Log:    log,
	})
}

func runServe(ctx context.Context, cfg *config.Config, comp *compress.Compressor, log *logging.Logger) int {
	srv, err := server.New(cfg.Serve, comp, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("Server failed: %v", err)
		return 1
	}
	return 0
}

// issueToken prints a bearer token accepted by a server started with the
// same secret and issuer.
func issueToken(w io.Writer, cfg *config.Config) error {
	auth, err := server.NewAuthenticator([]byte(cfg.Serve.AuthSecret), cfg.Serve.AuthIssuer)
	if err != nil {
		return err
	}
	tok, err := auth.Issue(cfg.TokenSubject, cfg.Serve.TokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}

// runJournal prunes old entries when --prune is set, then lists the rest.
func runJournal(w io.Writer, cfg *config.Config, log *logging.Logger) int {
	j, err := journal.Open(cfg.JournalDir)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer j.Close()

	if cfg.PruneAge > 0 {
		n, err := j.Prune(cfg.PruneAge)
		if err != nil {
			log.Error("Prune failed after %d entries: %v", n, err)
			return 1
		}
		log.Info("Pruned %d entries older than %s", n, cfg.PruneAge)
	}

	entries, err := j.List()
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if len(entries) == 0 {
		log.Info("Journal %s is empty", cfg.JournalDir)
		return 0
	}
	for _, e := range entries {
		switch e.Status {
		case journal.StatusDone:
			fmt.Fprintf(w, "%-6s  %s  %s -> %s (%s, %s)\n", e.Status, e.RecordedAt.Format(time.DateTime),
				e.Input, e.Output, display.FormatBytes(e.OutputSize), e.Percent)
		default:
			fmt.Fprintf(w, "%-6s  %s  %s: %s\n", e.Status, e.RecordedAt.Format(time.DateTime), e.Input, e.Error)
		}
	}
	log.Info("%d entries", len(entries))
	return 0
}

func runAnalyze(ctx context.Context, cfg *config.Config, env check.Env, log *logging.Logger) int {
	opts := pipeline.AnalyzeOptions{Recursive: cfg.Recursive, Runner: env.Runner}
	if !env.LookPath(pdftool.Pdfcpu) {
		log.Warn("pdfcpu not found; page counts will be missing")
		opts.Runner = nil
	}
	a, err := pipeline.Analyze(ctx, cfg.Input, opts, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	pipeline.PrintAnalysis(os.Stdout, a, log.Colors(), log)
	return 0
}

// runFile compresses a single file. Without an output the result lands next
// to the input with the suffix; an existing directory as output receives
// the suffixed name.
func runFile(ctx context.Context, cfg *config.Config, comp *compress.Compressor, log *logging.Logger) int {
	out := cfg.Output
	switch {
	case out == "":
		out = naming.SuffixPath(cfg.Input, cfg.Suffix)
	case isDir(out):
		out = filepath.Join(out, filepath.Base(naming.SuffixPath(cfg.Input, cfg.Suffix)))
	}

	log.Info("In:  %s", cfg.Input)
	log.Info("Out: %s", out)
	res, err := comp.Compress(ctx, cfg.Input, out, options.Override{})
	if err != nil {
		log.Error("Failed: %v", err)
		return 1
	}

	line := fmt.Sprintf("%s: %s, %s", filepath.Base(cfg.Input),
		display.FormatSizeChange(res.InputSize, res.OutputSize), res.PercentReduction)
	if res.Inflated() {
		log.Warn("%s", line)
	} else {
		log.Success("%s", line)
	}
	for _, g := range res.CapabilityGaps {
		log.Warn("Not applied (backend lacks support): %s", g)
	}

	if cfg.UploadURL != "" {
		up, err := openSink(ctx, cfg, log)
		if err != nil {
			return 1
		}
		defer up.Close()
		if err := up.Upload(ctx, out, filepath.Base(out)); err != nil {
			log.Error("Upload failed: %v", err)
			return 1
		}
		log.Info("Uploaded to %s", up)
	}
	return 0
}

func runDirectory(ctx context.Context, cfg *config.Config, comp *compress.Compressor, log *logging.Logger) int {
	inputAbs, err := absPath(cfg.Input)
	if err != nil {
		log.Error("Input not found: %s", cfg.Input)
		return 1
	}
	outputDir := ""
	if cfg.Output != "" {
		if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.Output)
			return 1
		}
		outputAbs, err := absPath(cfg.Output)
		if err != nil {
			log.Error("Cannot resolve output path: %s", cfg.Output)
			return 1
		}
		if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
			log.Error("%v", err)
			log.Error("Choose an output path outside: %s", cfg.Input)
			return 1
		}
		outputDir = outputAbs
	}

	log.Info("In:  %s", inputAbs)
	if outputDir == "" {
		log.Info("Out: in place (suffix %q)", cfg.Suffix)
	} else {
		log.Info("Out: %s", outputDir)
	}
	log.Info("")

	opts := []pipeline.BatchOption{pipeline.WithSuffix(cfg.Suffix)}
	if cfg.JournalDir != "" {
		j, err := journal.Open(cfg.JournalDir)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		defer j.Close()
		if cfg.Resume {
			opts = append(opts, pipeline.WithJournal(j))
		} else {
			opts = append(opts, pipeline.WithJournal(recordOnly{j}))
		}
	}
	if cfg.UploadURL != "" {
		up, err := openSink(ctx, cfg, log)
		if err != nil {
			return 1
		}
		defer up.Close()
		opts = append(opts, pipeline.WithUploader(up))
	}

	batch := pipeline.NewBatch(comp, log, opts...)
	res, err := batch.ProcessDirectory(ctx, inputAbs, outputDir, pipeline.RunOptions{
		Recursive: cfg.Recursive,
		Workers:   cfg.Workers,
	})
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	if cfg.ReportFile != "" {
		if err := pipeline.WriteReport(cfg.ReportFile, res); err != nil {
			log.Error("Cannot write report: %v", err)
			return 1
		}
		log.Info("Report written to %s", cfg.ReportFile)
	}
	return 0
}

// recordOnly writes outcomes to the journal without skipping anything.
type recordOnly struct{ *journal.Journal }

func (recordOnly) Completed(string, fs.FileInfo) (string, bool) { return "", false }

func openSink(ctx context.Context, cfg *config.Config, log *logging.Logger) (sink.Sink, error) {
	up, err := sink.Open(ctx, cfg.UploadURL, sink.CredentialsFromEnv(os.Getenv))
	if err != nil {
		log.Error("Cannot open upload target: %v", err)
		return nil, err
	}
	log.Info("Mirroring outputs to %s", up)
	return up, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
