// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the pdfcpu and Ghostscript backends.
package check

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/config"
	"github.com/ranjanmadhu/pdf-compressor/internal/display"
	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
)

// ErrNoBackend is returned by CheckDeps in strict mode when neither pdfcpu
// nor Ghostscript is on PATH.
var ErrNoBackend = errors.New("no PDF backend found on PATH (install pdfcpu or ghostscript)")

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Env is what the checks look at. Tests substitute fakes.
type Env struct {
	LookPath func(name string) bool
	Runner   pdftool.Runner
}

// SystemEnv returns an Env backed by PATH lookups and real tool runs.
func SystemEnv(cfg *config.Config) Env {
	return Env{
		LookPath: pdftool.Available,
		Runner:   pdftool.NewExecutor(cfg.ToolTimeout),
	}
}

// RunCheck runs the interactive --check flow: prints pdfcpu and Ghostscript
// availability with their versions, then host CPU and memory. It returns
// false when no backend is usable.
func RunCheck(ctx context.Context, env Env, log Logger) bool {
	log.Info("=== System Check ===")

	okPdfcpu := checkTool(ctx, env, log, pdftool.Pdfcpu, "version")
	okGs := checkTool(ctx, env, log, pdftool.Ghostscript, "--version")
	checkHost(log)

	switch {
	case okPdfcpu && okGs:
		log.Success("All backends available")
	case okPdfcpu || okGs:
		log.Warn("Only one backend available; some stages will be skipped")
	default:
		log.Error("No backend available; files will be copied unchanged")
		return false
	}
	return true
}

// checkTool verifies name is on PATH and logs the first line of its version
// output.
func checkTool(ctx context.Context, env Env, log Logger, name string, versionArg string) bool {
	if !env.LookPath(name) {
		log.Error("%s not found", name)
		return false
	}
	res := env.Runner.Run(ctx, name, versionArg)
	if res.Err != nil {
		log.Warn("%s found but %s failed: %v", name, versionArg, res.Err)
		return false
	}
	log.Success("%s: %s", name, firstLine(res.Stdout))
	return true
}

// checkHost logs platform, CPU count, and memory. Failures are informational.
func checkHost(log Logger) {
	if info, err := host.Info(); err == nil {
		log.Info("Host: %s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
	} else {
		log.Warn("Could not read host info: %v", err)
	}
	log.Info("CPUs: %d logical", DefaultWorkers())
	if vm, err := mem.VirtualMemory(); err == nil {
		log.Info("Memory: %s total, %s available", display.FormatBytes(int64(vm.Total)), display.FormatBytes(int64(vm.Available)))
	} else {
		log.Warn("Could not read memory info: %v", err)
	}
}

// CheckDeps is the pre-pipeline validation: it reports which backends are
// installed. With strict set, having none is an error; otherwise the
// compressor falls back to passthrough.
func CheckDeps(env Env, strict bool) (codec.Backends, error) {
	b := codec.Backends{
		Pdfcpu:      env.LookPath(pdftool.Pdfcpu),
		Ghostscript: env.LookPath(pdftool.Ghostscript),
	}
	if strict && !b.Any() {
		return b, ErrNoBackend
	}
	return b, nil
}

// DefaultWorkers returns the logical CPU count, falling back to
// runtime.NumCPU when gopsutil cannot read it.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
