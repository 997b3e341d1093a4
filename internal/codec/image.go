package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NativeImageCodec re-encodes images with the Go image packages. JPEG and
// anything else decodable (GIF, BMP, TIFF, WebP) is written as JPEG at the
// requested quality. PNG stays PNG; being lossless, quality selects the
// zlib effort instead.
type NativeImageCodec struct{}

var _ ImageCodec = NativeImageCodec{}

// Recompress decodes data and encodes it in [TargetFormat] of format.
func (NativeImageCodec) Recompress(ctx context.Context, data []byte, quality int, format ImageFormat) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: quality %d out of range", ErrRecompress, quality)
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrRecompress, format, err)
	}

	var buf bytes.Buffer
	switch TargetFormat(format) {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(quality)}
		err = enc.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s source as %s: %v", ErrRecompress, name, TargetFormat(format), err)
	}
	return buf.Bytes(), nil
}

// pngLevel maps a 1-100 quality onto zlib effort: lower quality means the
// caller cares more about size, so spend more effort compressing.
func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality >= 90:
		return png.BestSpeed
	case quality >= 50:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
