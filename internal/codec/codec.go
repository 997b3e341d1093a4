// Package codec defines the document and image codec contracts the
// compression stages call into, plus three implementations: Passthrough
// (byte-identical, used when no backend is installed and in tests),
// ToolCodec (pdfcpu and Ghostscript via internal/pdftool), and
// NativeImageCodec (Go image decoders).
package codec

import (
	"context"
	"errors"
)

// Sentinel errors. Implementations wrap these so stages can classify
// failures with errors.Is.
var (
	ErrDecode      = errors.New("decode document")
	ErrEncode      = errors.New("encode document")
	ErrRecompress  = errors.New("recompress image")
	ErrUnavailable = errors.New("codec capability unavailable")
	ErrEncrypted   = errors.New("document is encrypted")
)

// InfoField names one entry of the document information dictionary.
type InfoField string

const (
	FieldTitle    InfoField = "Title"
	FieldAuthor   InfoField = "Author"
	FieldSubject  InfoField = "Subject"
	FieldKeywords InfoField = "Keywords"
	FieldProducer InfoField = "Producer"
	FieldCreator  InfoField = "Creator"
)

// InfoFields lists the fields cleared when metadata is stripped.
var InfoFields = []InfoField{
	FieldTitle, FieldAuthor, FieldSubject, FieldKeywords, FieldProducer, FieldCreator,
}

// ImageFormat is the encoding family of an embedded image.
type ImageFormat string

const (
	FormatJPEG  ImageFormat = "jpeg"
	FormatPNG   ImageFormat = "png"
	FormatOther ImageFormat = "other"
)

// TargetFormat returns the format an image is re-encoded to: JPEG and PNG
// keep their family, anything else becomes JPEG.
func TargetFormat(src ImageFormat) ImageFormat {
	if src == FormatPNG {
		return FormatPNG
	}
	return FormatJPEG
}

// Image is one embedded raster image.
type Image struct {
	Page   int
	ID     string
	Format ImageFormat
	Data   []byte
}

// Capabilities reports which optional operations a codec actually performs.
type Capabilities struct {
	Grayscale bool `json:"grayscale"`
	Images    bool `json:"images"`
	Metadata  bool `json:"metadata"`
}

// EncodeOptions parameterizes one re-serialization.
type EncodeOptions struct {
	// Preset is the codec quality preset for the compression level
	// (Ghostscript PDFSETTINGS). Empty keeps the document as-is.
	Preset           string
	CompressionLevel int
	ObjectStreams    bool
	Grayscale        bool

	RemoveAnnotations bool
	OptimizeContent   bool
}

// Document is a loaded, mutable PDF handle. Close releases any scratch
// state and must be called once the document is no longer needed.
type Document interface {
	SetInfo(field InfoField, value string)
	PageCount() int
	Images(ctx context.Context) ([]Image, error)
	ReplaceImage(img Image, data []byte, format ImageFormat) error
	Close() error
}

// DocumentCodec loads and saves documents.
type DocumentCodec interface {
	Load(ctx context.Context, data []byte) (Document, error)
	Save(ctx context.Context, doc Document, opts EncodeOptions) ([]byte, error)
	Capabilities() Capabilities
}

// ImageCodec re-encodes a single image at quality (1-100). format is the
// source format; the output uses [TargetFormat] of it.
type ImageCodec interface {
	Recompress(ctx context.Context, data []byte, quality int, format ImageFormat) ([]byte, error)
}
