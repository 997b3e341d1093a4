package codec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
)

const samplePDF = "%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n"

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

// fakeTools emulates pdfcpu and gs by copying input to output and trimming
// a few bytes per rewrite, recording every invocation.
type fakeTools struct {
	mu        sync.Mutex
	calls     []string
	encrypted bool
	gsFail    []string // stderr for successive gs failures
	images    map[string][]byte
}

func (f *fakeTools) Run(_ context.Context, name string, args ...string) pdftool.ExecResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+" "+args[0])

	switch name {
	case pdftool.Pdfcpu:
		switch args[0] {
		case "info":
			return pdftool.ExecResult{Stdout: fmt.Sprintf(`{"infos":[{"version":"1.7","pageCount":3,"encrypted":%v}]}`, f.encrypted)}
		case "extract":
			dir := args[len(args)-1]
			for name, data := range f.images {
				os.WriteFile(filepath.Join(dir, name), data, 0o600)
			}
			return pdftool.ExecResult{}
		case "optimize", "annotations":
			in, out := args[len(args)-2], args[len(args)-1]
			return copyShrink(in, out, 1)
		case "images":
			return copyShrink(args[2], args[4], 2)
		}
	case pdftool.Ghostscript:
		if len(f.gsFail) > 0 {
			stderr := f.gsFail[0]
			f.gsFail = f.gsFail[1:]
			return pdftool.ExecResult{Stderr: stderr, Err: &pdftool.ToolError{Tool: "gs", Stderr: stderr, Err: errors.New("exit status 1")}}
		}
		var in, out string
		for i, a := range args {
			if v, ok := strings.CutPrefix(a, "-sOutputFile="); ok {
				out = v
			}
			if a == "-f" {
				in = args[i+1]
			}
		}
		return copyShrink(in, out, 3)
	}
	return pdftool.ExecResult{Err: fmt.Errorf("unexpected %s %v", name, args)}
}

func (f *fakeTools) ran(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func copyShrink(in, out string, n int) pdftool.ExecResult {
	data, err := os.ReadFile(in)
	if err != nil {
		return pdftool.ExecResult{Err: err}
	}
	if len(data) > n {
		data = data[:len(data)-n]
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return pdftool.ExecResult{Err: err}
	}
	return pdftool.ExecResult{}
}

func newTestCodec(t *testing.T, tools *fakeTools, b Backends) *ToolCodec {
	t.Helper()
	return NewToolCodec(tools, b, t.TempDir(), nopLogger{})
}

func TestToolCodec_Capabilities(t *testing.T) {
	all := NewToolCodec(nil, Backends{Pdfcpu: true, Ghostscript: true}, "", nopLogger{})
	assert.Equal(t, Capabilities{Grayscale: true, Images: true, Metadata: true}, all.Capabilities())

	onlyPdfcpu := NewToolCodec(nil, Backends{Pdfcpu: true}, "", nopLogger{})
	assert.Equal(t, Capabilities{Images: true}, onlyPdfcpu.Capabilities())
}

func TestToolCodec_LoadRejectsNonPDF(t *testing.T) {
	c := newTestCodec(t, &fakeTools{}, Backends{Pdfcpu: true})
	_, err := c.Load(context.Background(), []byte("hello"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestToolCodec_LoadEncrypted(t *testing.T) {
	c := newTestCodec(t, &fakeTools{encrypted: true}, Backends{Pdfcpu: true})
	_, err := c.Load(context.Background(), []byte(samplePDF))
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrEncrypted)
}

func TestToolCodec_MetadataRunsGhostscript(t *testing.T) {
	ctx := context.Background()
	tools := &fakeTools{}
	c := newTestCodec(t, tools, Backends{Pdfcpu: true, Ghostscript: true})

	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 3, doc.PageCount())

	for _, f := range InfoFields {
		doc.SetInfo(f, "")
	}
	out, err := c.Save(ctx, doc, EncodeOptions{})
	require.NoError(t, err)
	assert.Len(t, out, len(samplePDF)-3)
	assert.True(t, tools.ran("gs"))
	assert.False(t, tools.ran("pdfcpu optimize"))
}

func TestToolCodec_MetadataWithoutGhostscript(t *testing.T) {
	ctx := context.Background()
	c := newTestCodec(t, &fakeTools{}, Backends{Pdfcpu: true})
	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()

	doc.SetInfo(FieldAuthor, "")
	_, err = c.Save(ctx, doc, EncodeOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestToolCodec_FullPass(t *testing.T) {
	ctx := context.Background()
	tools := &fakeTools{}
	c := newTestCodec(t, tools, Backends{Pdfcpu: true, Ghostscript: true})
	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()

	_, err = c.Save(ctx, doc, EncodeOptions{
		Preset:            "/ebook",
		ObjectStreams:     true,
		RemoveAnnotations: true,
	})
	require.NoError(t, err)
	assert.True(t, tools.ran("pdfcpu annotations"))
	assert.True(t, tools.ran("gs"))
	assert.True(t, tools.ran("pdfcpu optimize"))
}

func TestToolCodec_GhostscriptRetry(t *testing.T) {
	ctx := context.Background()
	tools := &fakeTools{gsFail: []string{"**** Error: the new PDF interpreter failed"}}
	c := newTestCodec(t, tools, Backends{Ghostscript: true})
	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()

	_, err = c.Save(ctx, doc, EncodeOptions{Preset: "/screen"})
	require.NoError(t, err)

	gsCalls := 0
	for _, call := range tools.calls {
		if strings.HasPrefix(call, "gs") {
			gsCalls++
		}
	}
	assert.Equal(t, 2, gsCalls)
}

func TestToolCodec_GhostscriptUnrecoverable(t *testing.T) {
	ctx := context.Background()
	tools := &fakeTools{gsFail: []string{"segfault"}}
	c := newTestCodec(t, tools, Backends{Ghostscript: true})
	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()

	_, err = c.Save(ctx, doc, EncodeOptions{Preset: "/screen"})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestToolCodec_ImagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	tools := &fakeTools{images: map[string][]byte{
		"source_2_Im1.png": []byte("png-bytes"),
		"source_1_Im0.jpg": []byte("jpg-bytes"),
		"notes.txt":        []byte("ignored"),
	}}
	c := newTestCodec(t, tools, Backends{Pdfcpu: true})
	doc, err := c.Load(ctx, []byte(samplePDF))
	require.NoError(t, err)
	defer doc.Close()

	imgs, err := doc.Images(ctx)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, Image{Page: 1, ID: "Im0", Format: FormatJPEG, Data: []byte("jpg-bytes")}, imgs[0])
	assert.Equal(t, FormatPNG, imgs[1].Format)

	require.NoError(t, doc.ReplaceImage(imgs[0], []byte("smaller"), FormatJPEG))
	out, err := c.Save(ctx, doc, EncodeOptions{})
	require.NoError(t, err)
	assert.Len(t, out, len(samplePDF)-2)
	assert.True(t, tools.ran("pdfcpu images"))
}

func TestToolCodec_CloseRemovesScratch(t *testing.T) {
	c := newTestCodec(t, &fakeTools{}, Backends{})
	doc, err := c.Load(context.Background(), []byte(samplePDF))
	require.NoError(t, err)
	dir := doc.(*toolDoc).dir
	require.DirExists(t, dir)
	require.NoError(t, doc.Close())
	assert.NoDirExists(t, dir)
}
