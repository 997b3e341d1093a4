// Package config holds runtime configuration: defaults, an optional YAML
// file, environment overrides, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ranjanmadhu/pdf-compressor/internal/naming"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Command selects what the binary does after parsing.
type Command string

const (
	CommandCompress Command = "compress" // Compress a file or a directory (default).
	CommandServe    Command = "serve"    // Run the HTTP API.
	CommandToken    Command = "token"    // Print a bearer token for the HTTP API.
	CommandJournal  Command = "journal"  // List and prune journal entries.
)

// DefaultSuffix is appended to output filenames when the CLI derives them.
const DefaultSuffix = naming.DefaultSuffix

// ServeConfig holds settings for the serve subcommand.
type ServeConfig struct {
	Addr        string        `yaml:"addr"`          // Default: ":8080".
	MaxFileSize int64         `yaml:"max_file_size"` // Default: 50 MiB.
	TempDir     string        `yaml:"temp_dir"`      // Default: os temp dir.
	AuthSecret  string        `yaml:"auth_secret"`   // HS256 key; empty disables auth.
	AuthIssuer  string        `yaml:"auth_issuer"`   // Optional expected "iss" claim.
	TokenTTL    time.Duration `yaml:"token_ttl"`     // Lifetime of tokens minted by "token". Default: 24h.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadFile] and [ApplyEnv], and finally by [ParseFlags] before
// being passed (by pointer) to packages that need it.
type Config struct {
	Command Command `yaml:"-"`

	// Paths (set from positional args).
	Input  string `yaml:"-"`
	Output string `yaml:"-"` // Optional; derived from Input when empty.

	// Compression settings.
	Options options.Options `yaml:"options"`

	// Batch behavior.
	Recursive bool   `yaml:"recursive"`
	Workers   int    `yaml:"workers"` // Default: 1 (sequential); 0 means one per CPU.
	Suffix    string `yaml:"suffix"`  // Default: "-compressed".

	// Codec backend.
	ToolTimeout time.Duration `yaml:"tool_timeout"` // Default: 2m per external tool call.
	Strict      bool          `yaml:"strict"`       // Fail when no PDF backend is installed.

	// Optional integrations.
	JournalDir string `yaml:"journal"` // Pebble directory recording per-file outcomes.
	Resume     bool   `yaml:"resume"`  // Skip files the journal already recorded as done.
	UploadURL  string `yaml:"upload"`  // s3://, gs:// or sftp:// mirror for outputs.
	ReportFile string `yaml:"report"`  // JSON batch report path.

	Serve ServeConfig `yaml:"serve"`

	// Maintenance subcommands.
	TokenSubject string        `yaml:"-"` // "sub" claim for the token command.
	PruneAge     time.Duration `yaml:"-"` // journal: drop entries older than this; 0 keeps all.

	// Display and logging.
	Verbose    bool      `yaml:"verbose"`
	ColorMode  ColorMode `yaml:"color"`
	LogFile    string    `yaml:"log_file"`
	CheckOnly  bool      `yaml:"-"`
	Analyze    bool      `yaml:"-"` // Report per-file size/page statistics instead of compressing.
	ConfigFile string    `yaml:"-"`
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the file, environment, and flags apply their overrides.
func DefaultConfig() Config {
	return Config{
		Command:     CommandCompress,
		Options:     options.Default(),
		Recursive:   false,
		Workers:     1,
		Suffix:      DefaultSuffix,
		ToolTimeout: 2 * time.Minute,
		Serve: ServeConfig{
			Addr:        ":8080",
			MaxFileSize: 50 * 1024 * 1024,
			TokenTTL:    24 * time.Hour,
		},
		ColorMode: ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks option ranges and enum fields. For the compress command
// it also requires an input path.
func (c *Config) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return err
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", c.Workers)
	}
	if c.ToolTimeout <= 0 {
		return errors.New("tool timeout must be positive")
	}
	if c.Resume && c.JournalDir == "" {
		return errors.New("--resume needs --journal")
	}

	if c.CheckOnly {
		return nil
	}
	switch c.Command {
	case CommandServe:
		if c.Serve.MaxFileSize <= 0 {
			return errors.New("max file size must be positive")
		}
		return nil
	case CommandToken:
		if c.Serve.AuthSecret == "" {
			return errors.New("token needs --auth-secret")
		}
		if c.TokenSubject == "" {
			return errors.New("token needs a subject")
		}
		if c.Serve.TokenTTL <= 0 {
			return errors.New("token ttl must be positive")
		}
		return nil
	case CommandJournal:
		if c.JournalDir == "" {
			return errors.New("journal needs --journal")
		}
		if c.PruneAge < 0 {
			return errors.New("prune age must not be negative")
		}
		return nil
	case CommandCompress:
		if c.Input == "" {
			return errors.New("need an input file or directory")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}

// ValidatePaths ensures the resolved output directory is not inside the
// resolved input directory, which would make a recursive run discover its
// own output. Equal paths are allowed: that is an in-place run. Both
// arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if !c.Recursive || outputAbs == inputAbs {
		return nil
	}
	sep := string(filepath.Separator)
	if strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory for a recursive run")
	}
	return nil
}
