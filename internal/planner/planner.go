package planner

import (
	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

// Ghostscript PDFSETTINGS presets indexed by compression level 1-5.
var presets = [...]string{
	1: "/prepress",
	2: "/printer",
	3: "/default",
	4: "/ebook",
	5: "/screen",
}

// Preset returns the codec preset for a compression level, clamping out of
// range values.
func Preset(level int) string {
	return presets[Clamp(level, options.CompressionLevelMin, options.CompressionLevelMax)]
}

// BuildPlan produces a Plan from the effective options and the codec's
// capabilities. This is the decision matrix every compression consults.
//
// Flow:
//  1. Metadata stripping runs when requested and supported
//  2. Image recompression runs when requested and supported
//  3. Quality reduction always runs: preset from level, object streams
//     from level 2 upward, grayscale only when supported
//  4. Page optimization always runs: content optimization, plus
//     annotation removal at the most aggressive level
func BuildPlan(opts options.Options, caps codec.Capabilities) *Plan {
	level := Clamp(opts.CompressionLevel, options.CompressionLevelMin, options.CompressionLevelMax)

	plan := &Plan{
		Options:      opts,
		Capabilities: caps,
		ImageQuality: Clamp(opts.ImageQuality, options.ImageQualityMin, options.ImageQualityMax),
	}

	// --- 1. Metadata ---
	if opts.RemoveMetadata {
		plan.StripMetadata = caps.Metadata
		plan.MetadataGap = !caps.Metadata
	}

	// --- 2. Images ---
	if opts.OptimizeImages {
		plan.RecompressImages = caps.Images
		plan.ImagesGap = !caps.Images
	}

	// --- 3. Quality reduction ---
	plan.Quality = codec.EncodeOptions{
		Preset:           Preset(level),
		CompressionLevel: level,
		ObjectStreams:    level >= 2,
		Grayscale:        opts.Grayscale && caps.Grayscale,
	}
	plan.GrayscaleGap = opts.Grayscale && !caps.Grayscale

	// --- 4. Page optimization ---
	plan.Page = codec.EncodeOptions{
		CompressionLevel:  level,
		OptimizeContent:   true,
		RemoveAnnotations: level >= options.CompressionLevelMax,
	}
	return plan
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
