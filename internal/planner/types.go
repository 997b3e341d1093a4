package planner

import (
	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

// Gap names a requested feature the active codec cannot perform.
type Gap string

const (
	GapGrayscale Gap = "grayscale"
	GapMetadata  Gap = "metadata"
	GapImages    Gap = "images"
)

// Plan holds the complete set of decisions for compressing one file. It is
// produced by BuildPlan and read by every stage.
type Plan struct {
	Options      options.Options
	Capabilities codec.Capabilities

	// Metadata stage.
	StripMetadata bool
	MetadataGap   bool

	// Image stage.
	RecompressImages bool
	ImagesGap        bool
	ImageQuality     int

	// Re-serializing stages.
	Quality codec.EncodeOptions
	Page    codec.EncodeOptions

	// GrayscaleGap is set when grayscale was requested but the codec
	// cannot convert color.
	GrayscaleGap bool
}

// Gaps lists every capability gap in stage order.
func (p *Plan) Gaps() []Gap {
	var gaps []Gap
	if p.MetadataGap {
		gaps = append(gaps, GapMetadata)
	}
	if p.ImagesGap {
		gaps = append(gaps, GapImages)
	}
	if p.GrayscaleGap {
		gaps = append(gaps, GapGrayscale)
	}
	return gaps
}
