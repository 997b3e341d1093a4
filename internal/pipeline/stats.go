package pipeline

import (
	"errors"

	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
)

// FileStatus is the outcome of one discovered file.
type FileStatus string

const (
	StatusSucceeded FileStatus = "succeeded"
	StatusFailed    FileStatus = "failed"
	StatusSkipped   FileStatus = "skipped" // Already done according to the journal.
)

// FileRecord is the per-file entry of a BatchResult. Result is set on
// success, Error on failure.
type FileRecord struct {
	Path       string                      `json:"path"`
	OutputPath string                      `json:"outputPath,omitempty"`
	Status     FileStatus                  `json:"status"`
	Result     *compress.CompressionResult `json:"result,omitempty"`
	Error      string                      `json:"error,omitempty"`
	Uploaded   string                      `json:"uploaded,omitempty"` // Remote key, when an uploader is set.

	err error
}

// Err returns the failure, if any.
func (r FileRecord) Err() error {
	if r.err == nil && r.Error != "" {
		return errors.New(r.Error)
	}
	return r.err
}

// BatchResult tracks aggregate counters and byte totals across a batch run.
// FilesProcessed is FilesSucceeded + FilesFailed; byte totals only count
// successes. FilesSkipped counts files not attempted, either because the
// journal already had them or because the run was cancelled.
type BatchResult struct {
	FilesProcessed   int          `json:"filesProcessed"`
	FilesSucceeded   int          `json:"filesSucceeded"`
	FilesFailed      int          `json:"filesFailed"`
	FilesSkipped     int          `json:"filesSkipped"`
	TotalInputSize   int64        `json:"totalInputSizeBytes"`
	TotalOutputSize  int64        `json:"totalOutputSizeBytes"`
	TotalSavings     int64        `json:"totalSavingsBytes"`
	PercentReduction string       `json:"percentReduction"`
	Files            []FileRecord `json:"files"`
	Cancelled        bool         `json:"cancelled,omitempty"`
}

func newBatchResult() *BatchResult {
	return &BatchResult{
		PercentReduction: compress.PercentReduction(0, 0),
		Files:            []FileRecord{},
	}
}

// fold adds one record to the totals. Records must be folded in discovery
// order.
func (b *BatchResult) fold(r FileRecord) {
	b.Files = append(b.Files, r)
	switch r.Status {
	case StatusSucceeded:
		b.FilesProcessed++
		b.FilesSucceeded++
		b.TotalInputSize += r.Result.InputSize
		b.TotalOutputSize += r.Result.OutputSize
	case StatusFailed:
		b.FilesProcessed++
		b.FilesFailed++
	case StatusSkipped:
		b.FilesSkipped++
	}
	b.TotalSavings = b.TotalInputSize - b.TotalOutputSize
	b.PercentReduction = compress.PercentReduction(b.TotalSavings, b.TotalInputSize)
}
