package compress

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
)

var allCaps = codec.Capabilities{Grayscale: true, Images: true, Metadata: true}

// memCodec is an in-memory DocumentCodec. Every Save changes the size by
// -delta bytes (negative delta grows the document) and records the options
// it was called with.
type memCodec struct {
	caps    codec.Capabilities
	delta   int
	images  []codec.Image
	saveErr func(codec.EncodeOptions) error

	mu    sync.Mutex
	saves []codec.EncodeOptions
	infos []map[codec.InfoField]string
}

type memDoc struct {
	data     []byte
	info     map[codec.InfoField]string
	images   []codec.Image
	replaced int
}

func (c *memCodec) Capabilities() codec.Capabilities { return c.caps }

func (c *memCodec) Load(_ context.Context, data []byte) (codec.Document, error) {
	return &memDoc{data: bytes.Clone(data), images: c.images}, nil
}

func (c *memCodec) Save(_ context.Context, doc codec.Document, opts codec.EncodeOptions) ([]byte, error) {
	d := doc.(*memDoc)
	c.mu.Lock()
	c.saves = append(c.saves, opts)
	c.infos = append(c.infos, d.info)
	c.mu.Unlock()
	if c.saveErr != nil {
		if err := c.saveErr(opts); err != nil {
			return nil, err
		}
	}
	out := d.data
	switch {
	case c.delta > 0 && len(out) > c.delta:
		out = out[:len(out)-c.delta]
	case c.delta < 0:
		out = append(bytes.Clone(out), bytes.Repeat([]byte{' '}, -c.delta)...)
	}
	if d.replaced > 0 && len(out) > d.replaced {
		out = out[:len(out)-d.replaced]
	}
	return out, nil
}

func (c *memCodec) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saves)
}

func (d *memDoc) SetInfo(f codec.InfoField, v string) {
	if d.info == nil {
		d.info = map[codec.InfoField]string{}
	}
	d.info[f] = v
}

func (d *memDoc) PageCount() int { return 1 }
func (d *memDoc) Close() error   { return nil }

func (d *memDoc) Images(context.Context) ([]codec.Image, error) { return d.images, nil }

func (d *memDoc) ReplaceImage(img codec.Image, data []byte, _ codec.ImageFormat) error {
	d.replaced += len(img.Data) - len(data)
	return nil
}

// failingImages always fails, like a broken image library.
type failingImages struct{}

func (failingImages) Recompress(context.Context, []byte, int, codec.ImageFormat) ([]byte, error) {
	return nil, fmt.Errorf("%w: decoder exploded", codec.ErrRecompress)
}

// halvingImages returns the first half of every image.
type halvingImages struct{}

func (halvingImages) Recompress(_ context.Context, data []byte, _ int, _ codec.ImageFormat) ([]byte, error) {
	return data[:len(data)/2], nil
}
