package codec

import (
	"context"
	"fmt"
)

// Passthrough is a DocumentCodec and ImageCodec that never changes bytes.
// It advertises no capabilities, so stages that need metadata or image
// access report a gap instead of pretending to succeed.
type Passthrough struct{}

var (
	_ DocumentCodec = Passthrough{}
	_ ImageCodec    = Passthrough{}
)

type passthroughDoc struct {
	data []byte
}

func (Passthrough) Load(_ context.Context, data []byte) (Document, error) {
	return &passthroughDoc{data: data}, nil
}

func (Passthrough) Save(_ context.Context, doc Document, _ EncodeOptions) ([]byte, error) {
	d, ok := doc.(*passthroughDoc)
	if !ok {
		return nil, fmt.Errorf("%w: foreign document %T", ErrEncode, doc)
	}
	return d.data, nil
}

func (Passthrough) Capabilities() Capabilities { return Capabilities{} }

func (Passthrough) Recompress(_ context.Context, data []byte, _ int, _ ImageFormat) ([]byte, error) {
	return data, nil
}

func (d *passthroughDoc) SetInfo(InfoField, string) {}
func (d *passthroughDoc) PageCount() int            { return 0 }
func (d *passthroughDoc) Close() error              { return nil }

func (d *passthroughDoc) Images(context.Context) ([]Image, error) {
	return nil, nil
}

func (d *passthroughDoc) ReplaceImage(Image, []byte, ImageFormat) error {
	return ErrUnavailable
}
