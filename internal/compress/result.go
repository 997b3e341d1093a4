package compress

import (
	"fmt"
	"time"

	"github.com/ranjanmadhu/pdf-compressor/internal/planner"
)

// StageReport is the serializable summary of one StageOutcome.
type StageReport struct {
	Stage     string        `json:"stage"`
	Succeeded bool          `json:"succeeded"`
	Skipped   bool          `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
	Gaps      []planner.Gap `json:"gaps,omitempty"`
}

func reportOf(o StageOutcome) StageReport {
	r := StageReport{
		Stage:     o.Stage,
		Succeeded: o.Succeeded,
		Skipped:   o.Skipped,
		Gaps:      o.Gaps,
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}

// CompressionResult describes one compressed file. Savings is negative
// when the output grew.
type CompressionResult struct {
	InputPath        string        `json:"inputPath"`
	OutputPath       string        `json:"outputPath"`
	InputSize        int64         `json:"inputSizeBytes"`
	OutputSize       int64         `json:"outputSizeBytes"`
	Savings          int64         `json:"savingsBytes"`
	PercentReduction string        `json:"percentReduction"`
	Stages           []StageReport `json:"stages,omitempty"`
	CapabilityGaps   []planner.Gap `json:"capabilityGaps,omitempty"`
	Duration         time.Duration `json:"durationNs"`
}

// NewResult computes Savings and PercentReduction from the two sizes.
func NewResult(inputPath, outputPath string, inputSize, outputSize int64) *CompressionResult {
	savings := inputSize - outputSize
	return &CompressionResult{
		InputPath:        inputPath,
		OutputPath:       outputPath,
		InputSize:        inputSize,
		OutputSize:       outputSize,
		Savings:          savings,
		PercentReduction: PercentReduction(savings, inputSize),
	}
}

// Inflated reports whether the output is larger than the input.
func (r *CompressionResult) Inflated() bool { return r.Savings < 0 }

// PercentReduction formats savings/input as a percentage with two decimals,
// e.g. "37.50%". It is "0.00%" when input is zero.
func PercentReduction(savings, input int64) string {
	if input == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(savings)/float64(input)*100)
}
