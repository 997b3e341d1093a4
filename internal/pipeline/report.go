package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// WriteReport writes r to path as indented JSON, creating parent
// directories.
func WriteReport(path string, r *BatchResult) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*BatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r BatchResult
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}
