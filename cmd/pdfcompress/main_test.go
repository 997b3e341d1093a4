package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ranjanmadhu/pdf-compressor/internal/config"
	"github.com/ranjanmadhu/pdf-compressor/internal/journal"
	"github.com/ranjanmadhu/pdf-compressor/internal/logging"
	"github.com/ranjanmadhu/pdf-compressor/internal/server"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRun_ExitCodes(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.pdf")
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, 0},
		{"unknown flag", []string{"--bogus"}, 1},
		{"no input", []string{"--no-color"}, 1},
		{"bad level", []string{"--no-color", "--compression-level", "9", "a.pdf"}, 1},
		{"missing input", []string{"--no-color", missing}, 1},
		{"token weak secret", []string{"token", "--no-color", "--auth-secret", "short", "ci"}, 1},
		{"token without secret", []string{"token", "--no-color", "ci"}, 1},
		{"journal without dir", []string{"journal", "--no-color"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestIssueToken_VerifiesWithSameSecret(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Serve.AuthSecret = testSecret
	cfg.Serve.AuthIssuer = "ops"
	cfg.TokenSubject = "ci-bot"

	var buf bytes.Buffer
	if err := issueToken(&buf, &cfg); err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	auth, err := server.NewAuthenticator([]byte(testSecret), "ops")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := auth.Verify(strings.TrimSpace(buf.String()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "ci-bot" {
		t.Errorf("subject = %q", claims.Subject)
	}
}

func TestRunJournal_PrunesAndLists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j, err := journal.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	entries := []journal.Entry{
		{Input: "/in/old.pdf", Output: "/out/old.pdf", Status: journal.StatusDone, RecordedAt: now.Add(-90 * 24 * time.Hour)},
		{Input: "/in/a.pdf", Output: "/out/a-compressed.pdf", Status: journal.StatusDone, OutputSize: 2048, Percent: "50.00%", RecordedAt: now},
		{Input: "/in/b.pdf", Status: journal.StatusFailed, Error: "not a PDF", RecordedAt: now},
	}
	for _, e := range entries {
		if err := j.Put(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Command = config.CommandJournal
	cfg.JournalDir = dir
	cfg.PruneAge = 30 * 24 * time.Hour

	var buf bytes.Buffer
	if code := runJournal(&buf, &cfg, logging.Discard()); code != 0 {
		t.Fatalf("runJournal = %d", code)
	}
	out := buf.String()
	if strings.Contains(out, "old.pdf") {
		t.Errorf("pruned entry still listed:\n%s", out)
	}
	if !strings.Contains(out, "/in/a.pdf -> /out/a-compressed.pdf (2.0 KiB, 50.00%)") {
		t.Errorf("done entry missing:\n%s", out)
	}
	if !strings.Contains(out, "/in/b.pdf: not a PDF") {
		t.Errorf("failed entry missing:\n%s", out)
	}
}
