package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into compression, batch, integrations, serve, display, and utility.
// Negated flags (e.g. --no-remove-metadata) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrExit is returned after --help or --version has been printed; the caller
// should exit successfully without doing any work.
var ErrExit = errors.New("exit requested")

// ParseFlags parses args (without the program name) into cfg. A leading
// "serve", "token" or "journal" selects that subcommand. The --config file
// and PDFCOMPRESS_* environment are applied before the flags, so flags
// always win.
func ParseFlags(cfg *Config, args []string, version string) error {
	if len(args) > 0 {
		switch c := Command(args[0]); c {
		case CommandServe, CommandToken, CommandJournal:
			cfg.Command = c
			args = args[1:]
		}
	}

	if path := findConfigArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return err
	}

	fs := flag.NewFlagSet("pdfcompress", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var negated negatedFlags

	defineCompressionFlags(fs, cfg, &negated)
	defineBatchFlags(fs, cfg)
	defineIntegrationFlags(fs, cfg)
	defineServeFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(os.Stderr, version)
			return ErrExit
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(os.Stderr, version)
		return ErrExit
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "pdfcompress v"+version)
		return ErrExit
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a default (e.g. noRemoveMetadata -> RemoveMetadata=false) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noOptimizeImages bool
	noRemoveMetadata bool
	forceColor       bool
	noColor          bool
	showVersion      bool
	showHelp         bool
}

// findConfigArg returns the value of --config/-config without parsing the
// rest of args, so the file can seed the flag defaults.
func findConfigArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// defineCompressionFlags registers the per-run compression options.
func defineCompressionFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	o := &cfg.Options
	fs.BoolVar(&o.OptimizeImages, "optimize-images", o.OptimizeImages, "Recompress embedded images (default: on)")
	fs.BoolVar(&n.noOptimizeImages, "no-optimize-images", false, "Leave embedded images untouched")
	fs.IntVar(&o.ImageQuality, "image-quality", o.ImageQuality, "Image quality 1-100")
	fs.BoolVar(&o.RemoveMetadata, "remove-metadata", o.RemoveMetadata, "Strip document info fields (default: on)")
	fs.BoolVar(&n.noRemoveMetadata, "no-remove-metadata", false, "Keep document info fields")
	fs.IntVar(&o.CompressionLevel, "compression-level", o.CompressionLevel, "Compression level 1-5")
	fs.BoolVar(&o.Grayscale, "grayscale", o.Grayscale, "Convert colors to grayscale when the backend supports it")
}

// defineBatchFlags registers directory-run behavior and backend limits.
func defineBatchFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "Descend into subdirectories")
	fs.BoolVar(&cfg.Recursive, "r", cfg.Recursive, "Same as --recursive")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Files compressed in parallel (0 = one per CPU)")
	fs.IntVar(&cfg.Workers, "j", cfg.Workers, "Same as --workers")
	fs.StringVar(&cfg.Suffix, "suffix", cfg.Suffix, "Suffix appended to output filenames")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Fail when no PDF backend (pdfcpu/gs) is installed")
	fs.DurationVar(&cfg.ToolTimeout, "tool-timeout", cfg.ToolTimeout, "Timeout for each external tool call")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
}

// defineIntegrationFlags registers the journal, upload mirror, and report.
func defineIntegrationFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.JournalDir, "journal", cfg.JournalDir, "Record per-file outcomes in this directory")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Skip files the journal recorded as done")
	fs.StringVar(&cfg.UploadURL, "upload", cfg.UploadURL, "Mirror outputs to s3://, gs:// or sftp://")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "Write a JSON batch report")
	fs.DurationVar(&cfg.PruneAge, "prune", cfg.PruneAge, "journal: drop entries older than this")
}

// defineServeFlags registers the HTTP API settings.
func defineServeFlags(fs *flag.FlagSet, cfg *Config) {
	s := &cfg.Serve
	fs.StringVar(&s.Addr, "addr", s.Addr, "Listen address for serve")
	fs.Int64Var(&s.MaxFileSize, "max-size", s.MaxFileSize, "Maximum upload size in bytes")
	fs.StringVar(&s.TempDir, "temp-dir", s.TempDir, "Directory for request scratch files")
	fs.StringVar(&s.AuthSecret, "auth-secret", s.AuthSecret, "HS256 secret for bearer tokens")
	fs.StringVar(&s.AuthIssuer, "auth-issuer", s.AuthIssuer, "Expected token issuer")
	fs.DurationVar(&s.TokenTTL, "ttl", s.TokenTTL, "Lifetime of minted tokens")
}

// defineDisplayFlags registers color, verbosity, --check, --analyze and --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&cfg.Analyze, "analyze", false, "Report size and page statistics without compressing")
	fs.BoolVar(&cfg.Analyze, "a", false, "Same as --analyze")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noOptimizeImages {
		cfg.Options.OptimizeImages = false
	}
	if n.noRemoveMetadata {
		cfg.Options.RemoveMetadata = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets Input and the optional Output for compress.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	switch cfg.Command {
	case CommandServe, CommandJournal:
		if len(args) != 0 {
			return fmt.Errorf("%s takes no positional arguments (got %q)", cfg.Command, strings.Join(args, " "))
		}
		return nil
	case CommandToken:
		if len(args) != 1 {
			return errors.New("token needs exactly one <subject>")
		}
		cfg.TokenSubject = args[0]
		return nil
	}
	switch len(args) {
	case 1:
		cfg.Input = NormalizeDirArg(args[0])
	case 2:
		cfg.Input = NormalizeDirArg(args[0])
		cfg.Output = NormalizeDirArg(args[1])
	default:
		return fmt.Errorf("need <input> and optionally [output]")
	}
	return nil
}

// parseInt parses a string as an integer; returns a clear error on failure.
func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number (got %q)", name, s)
	}
	return n, nil
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "pdfcompress v" + version + " - batch PDF size reduction"},
		{"", ""},
		{"  pdfcompress [OPTIONS] <input> [output]", ""},
		{"  pdfcompress serve [OPTIONS]", ""},
		{"  pdfcompress token --auth-secret <key> <subject>", ""},
		{"  pdfcompress journal --journal <dir> [--prune <age>]", ""},
		{"", ""},
		{"Compression", ""},
		{"  --optimize-images", "Recompress embedded images (default: on)"},
		{"  --no-optimize-images", "Leave embedded images untouched"},
		{"  --image-quality <1-100>", "Image quality (default: 80)"},
		{"  --remove-metadata", "Strip title/author/... (default: on)"},
		{"  --no-remove-metadata", "Keep document info fields"},
		{"  --compression-level <1-5>", "1=minimal, 5=most aggressive (default: 3)"},
		{"  --grayscale", "Convert to grayscale when supported"},
		{"", ""},
		{"Batch", ""},
		{"  -r, --recursive", "Descend into subdirectories"},
		{"  -j, --workers <n>", "Files in parallel (default: 1, 0 = per CPU)"},
		{"  --suffix <text>", "Output filename suffix (default: -compressed)"},
		{"  --strict", "Fail when pdfcpu/gs are missing"},
		{"  --tool-timeout <dur>", "Timeout per external tool call (default: 2m)"},
		{"  --config <file>", "YAML config file"},
		{"", ""},
		{"Integrations", ""},
		{"  --journal <dir>", "Record per-file outcomes"},
		{"  --resume", "Skip files already recorded as done"},
		{"  --upload <url>", "Mirror outputs to s3://, gs:// or sftp://"},
		{"  --report <file>", "Write a JSON batch report"},
		{"  --prune <age>", "journal: drop entries older than age"},
		{"", ""},
		{"Serve", ""},
		{"  --addr <host:port>", "Listen address (default: :8080)"},
		{"  --max-size <bytes>", "Maximum upload size (default: 50 MiB)"},
		{"  --temp-dir <dir>", "Scratch directory for uploads"},
		{"  --auth-secret <key>", "Require HS256 bearer tokens"},
		{"  --auth-issuer <iss>", "Expected token issuer"},
		{"  --ttl <dur>", "token: lifetime (default: 24h)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (pdfcpu, gs, host)"},
		{"  -a, --analyze", "Size/page statistics with outlier flags"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
