package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetFormat(t *testing.T) {
	assert.Equal(t, FormatJPEG, TargetFormat(FormatJPEG))
	assert.Equal(t, FormatPNG, TargetFormat(FormatPNG))
	assert.Equal(t, FormatJPEG, TargetFormat(FormatOther))
}

func TestPassthrough_ByteIdentical(t *testing.T) {
	ctx := context.Background()
	data := []byte("%PDF-1.4\nwhatever\n%%EOF")

	var c Passthrough
	doc, err := c.Load(ctx, data)
	require.NoError(t, err)
	doc.SetInfo(FieldTitle, "")
	out, err := c.Save(ctx, doc, EncodeOptions{Preset: "/screen", Grayscale: true})
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, Capabilities{}, c.Capabilities())
	assert.NoError(t, doc.Close())
}

func TestPassthrough_RecompressUnchanged(t *testing.T) {
	in := []byte{1, 2, 3}
	out, err := Passthrough{}.Recompress(context.Background(), in, 10, FormatJPEG)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// gradient returns a noisy-enough image that JPEG quality visibly matters.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 13), uint8((x * y) % 251), 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, q int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(64, 64), &jpeg.Options{Quality: q}))
	return buf.Bytes()
}

func TestNativeImageCodec_JPEGQuality(t *testing.T) {
	src := encodeJPEG(t, 100)
	out, err := NativeImageCodec{}.Recompress(context.Background(), src, 30, FormatJPEG)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))

	_, name, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", name)
}

func TestNativeImageCodec_PNGStaysPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&buf, gradient(32, 32)))

	out, err := NativeImageCodec{}.Recompress(context.Background(), buf.Bytes(), 20, FormatPNG)
	require.NoError(t, err)
	_, name, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", name)
}

func TestNativeImageCodec_OtherBecomesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, gradient(16, 16), nil))

	out, err := NativeImageCodec{}.Recompress(context.Background(), buf.Bytes(), 80, FormatOther)
	require.NoError(t, err)
	_, name, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", name)
}

func TestNativeImageCodec_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := NativeImageCodec{}.Recompress(ctx, []byte("not an image"), 80, FormatJPEG)
	assert.ErrorIs(t, err, ErrRecompress)

	_, err = NativeImageCodec{}.Recompress(ctx, encodeJPEG(t, 90), 0, FormatJPEG)
	assert.ErrorIs(t, err, ErrRecompress)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NativeImageCodec{}.Recompress(cancelled, encodeJPEG(t, 90), 50, FormatJPEG)
	assert.ErrorIs(t, err, context.Canceled)
}
