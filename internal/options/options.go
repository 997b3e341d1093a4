// Package options holds the per-run compression settings shared by the
// single-file compressor, the batch driver, the CLI, and the HTTP API.
//
// An [Options] value is always fully populated. Partial updates are
// expressed as an [Override], whose nil fields mean "keep the current value";
// [Options.Merge] folds an override into a new fully-populated value.
package options

import "fmt"

// Valid ranges for the numeric settings.
const (
	ImageQualityMin     = 1
	ImageQualityMax     = 100
	CompressionLevelMin = 1
	CompressionLevelMax = 5
)

// Options configures one compression run.
type Options struct {
	OptimizeImages   bool `yaml:"optimize_images" json:"optimizeImages"`     // Default: true.
	ImageQuality     int  `yaml:"image_quality" json:"imageQuality"`         // Default: 80 (1-100).
	RemoveMetadata   bool `yaml:"remove_metadata" json:"removeMetadata"`     // Default: true.
	CompressionLevel int  `yaml:"compression_level" json:"compressionLevel"` // Default: 3 (1=minimal, 5=most aggressive).
	Grayscale        bool `yaml:"grayscale" json:"grayscale"`                // Default: false.
}

// Default returns the baseline settings.
func Default() Options {
	return Options{
		OptimizeImages:   true,
		ImageQuality:     80,
		RemoveMetadata:   true,
		CompressionLevel: 3,
		Grayscale:        false,
	}
}

// Override is a partial update. Nil fields inherit the value being merged into.
type Override struct {
	OptimizeImages   *bool `json:"optimizeImages,omitempty"`
	ImageQuality     *int  `json:"imageQuality,omitempty"`
	RemoveMetadata   *bool `json:"removeMetadata,omitempty"`
	CompressionLevel *int  `json:"compressionLevel,omitempty"`
	Grayscale        *bool `json:"grayscale,omitempty"`
}

// Merge returns o with every field set in ov replacing the current value.
// Merging the same override twice yields the same result as merging it once.
func (o Options) Merge(ov Override) Options {
	if ov.OptimizeImages != nil {
		o.OptimizeImages = *ov.OptimizeImages
	}
	if ov.ImageQuality != nil {
		o.ImageQuality = *ov.ImageQuality
	}
	if ov.RemoveMetadata != nil {
		o.RemoveMetadata = *ov.RemoveMetadata
	}
	if ov.CompressionLevel != nil {
		o.CompressionLevel = *ov.CompressionLevel
	}
	if ov.Grayscale != nil {
		o.Grayscale = *ov.Grayscale
	}
	return o
}

// IsZero reports whether the override changes nothing.
func (ov Override) IsZero() bool {
	return ov.OptimizeImages == nil && ov.ImageQuality == nil && ov.RemoveMetadata == nil &&
		ov.CompressionLevel == nil && ov.Grayscale == nil
}

// Validate checks the numeric ranges.
func (o Options) Validate() error {
	if o.ImageQuality < ImageQualityMin || o.ImageQuality > ImageQualityMax {
		return fmt.Errorf("image quality must be between %d and %d (got %d)",
			ImageQualityMin, ImageQualityMax, o.ImageQuality)
	}
	if o.CompressionLevel < CompressionLevelMin || o.CompressionLevel > CompressionLevelMax {
		return fmt.Errorf("compression level must be between %d and %d (got %d)",
			CompressionLevelMin, CompressionLevelMax, o.CompressionLevel)
	}
	return nil
}

// Bool and Int return pointers for building overrides inline.
func Bool(v bool) *bool { return &v }

func Int(v int) *int { return &v }
