package codec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
	"github.com/ranjanmadhu/pdf-compressor/internal/probe"
)

// Logger is the minimal logging interface needed by ToolCodec.
type Logger interface {
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

// Backends records which external tools are installed.
type Backends struct {
	Pdfcpu      bool
	Ghostscript bool
}

// Any reports whether at least one backend is installed.
func (b Backends) Any() bool { return b.Pdfcpu || b.Ghostscript }

// ToolCodec implements DocumentCodec on top of the pdfcpu and Ghostscript
// command-line tools. Each loaded document gets its own scratch directory
// under tempDir, so concurrent documents never share files.
type ToolCodec struct {
	run      pdftool.Runner
	backends Backends
	tempDir  string
	log      Logger
}

var _ DocumentCodec = (*ToolCodec)(nil)

// NewToolCodec returns a codec driving the installed backends through run.
// An empty tempDir means the OS default.
func NewToolCodec(run pdftool.Runner, backends Backends, tempDir string, log Logger) *ToolCodec {
	return &ToolCodec{run: run, backends: backends, tempDir: tempDir, log: log}
}

// Capabilities: Ghostscript rewrites the info dictionary and converts
// color; pdfcpu extracts and replaces images.
func (c *ToolCodec) Capabilities() Capabilities {
	return Capabilities{
		Grayscale: c.backends.Ghostscript,
		Images:    c.backends.Pdfcpu,
		Metadata:  c.backends.Ghostscript,
	}
}

type replacement struct {
	img    Image
	data   []byte
	format ImageFormat
}

type toolDoc struct {
	codec        *ToolCodec
	dir          string
	path         string
	seq          int
	pages        int
	info         map[InfoField]string
	replacements []replacement
}

// Load writes data into a fresh scratch directory and, when pdfcpu is
// available, probes it for page count and encryption.
func (c *ToolCodec) Load(ctx context.Context, data []byte) (Document, error) {
	if _, err := probe.SniffBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	dir, err := os.MkdirTemp(c.tempDir, "doc-")
	if err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %v", ErrDecode, err)
	}
	d := &toolDoc{codec: c, dir: dir, path: filepath.Join(dir, "source.pdf")}
	if err := os.WriteFile(d.path, data, 0o600); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if c.backends.Pdfcpu {
		pr, err := probe.Probe(ctx, c.run, d.path)
		if err != nil {
			d.Close()
			var te *pdftool.ToolError
			if errors.As(err, &te) && pdftool.MatchEncrypted(te.Stderr) {
				return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEncrypted)
			}
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if pr.Encrypted {
			d.Close()
			return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEncrypted)
		}
		d.pages = pr.PageCount
	}
	return d, nil
}

// Save applies pending edits and opts in a fixed order: image updates,
// annotation removal, one Ghostscript pass (info dictionary, preset,
// grayscale), then pdfcpu optimize.
func (c *ToolCodec) Save(ctx context.Context, doc Document, opts EncodeOptions) ([]byte, error) {
	d, ok := doc.(*toolDoc)
	if !ok || d.codec != c {
		return nil, fmt.Errorf("%w: foreign document %T", ErrEncode, doc)
	}
	cur := d.path

	for i, r := range d.replacements {
		if !c.backends.Pdfcpu {
			return nil, fmt.Errorf("%w: image update needs pdfcpu", ErrUnavailable)
		}
		imgPath := filepath.Join(d.dir, fmt.Sprintf("replace-%d.%s", i, extFor(r.format)))
		if err := os.WriteFile(imgPath, r.data, 0o600); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		next := d.nextPath("images")
		res := c.run.Run(ctx, pdftool.Pdfcpu, pdftool.UpdateImageArgs(cur, imgPath, next, r.img.Page, r.img.ID)...)
		if res.Err != nil {
			return nil, fmt.Errorf("%w: update image %d/%s: %w", ErrEncode, r.img.Page, r.img.ID, res.Err)
		}
		cur = next
	}

	if opts.RemoveAnnotations && c.backends.Pdfcpu {
		next := d.nextPath("annots")
		res := c.run.Run(ctx, pdftool.Pdfcpu, pdftool.RemoveAnnotationsArgs(cur, next)...)
		if res.Err != nil {
			return nil, fmt.Errorf("%w: remove annotations: %w", ErrEncode, res.Err)
		}
		cur = next
	}

	if len(d.info) > 0 || opts.Preset != "" || opts.Grayscale {
		switch {
		case c.backends.Ghostscript:
			next := d.nextPath("gs")
			params := pdftool.GhostscriptParams{
				Input:     cur,
				Output:    next,
				Preset:    opts.Preset,
				Grayscale: opts.Grayscale,
			}
			if len(d.info) > 0 {
				params.Pdfmark = filepath.Join(d.dir, fmt.Sprintf("docinfo-%d.ps", d.seq))
				if err := os.WriteFile(params.Pdfmark, []byte(pdftool.DocInfoPdfmark(infoMap(d.info))), 0o600); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrEncode, err)
				}
			}
			if err := c.ghostscript(ctx, params); err != nil {
				return nil, err
			}
			cur = next
		case len(d.info) > 0 || opts.Grayscale:
			return nil, fmt.Errorf("%w: info dictionary and color conversion need ghostscript", ErrUnavailable)
		}
	}

	if (opts.ObjectStreams || opts.OptimizeContent) && c.backends.Pdfcpu {
		next := d.nextPath("optimize")
		res := c.run.Run(ctx, pdftool.Pdfcpu, pdftool.OptimizeArgs(cur, next)...)
		if res.Err != nil {
			return nil, fmt.Errorf("%w: optimize: %w", ErrEncode, res.Err)
		}
		cur = next
	}

	data, err := os.ReadFile(cur)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	d.path = cur
	d.info = nil
	d.replacements = nil
	return data, nil
}

// ghostscript runs one pdfwrite pass, retrying with one fix per attempt
// while stderr matches a known recoverable failure.
func (c *ToolCodec) ghostscript(ctx context.Context, p pdftool.GhostscriptParams) error {
	rs := pdftool.NewRetryState()
	for {
		res := c.run.Run(ctx, pdftool.Ghostscript, pdftool.BuildGhostscript(p, rs)...)
		if res.Err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pdftool.MatchEncrypted(res.Stderr) {
			return fmt.Errorf("%w: %w", ErrEncode, ErrEncrypted)
		}
		action := rs.Advance(res.Stderr)
		if action == pdftool.RetryNone {
			return fmt.Errorf("%w: ghostscript: %w", ErrEncode, res.Err)
		}
		c.log.Warn("Ghostscript retry %d: %s", rs.Attempt, action)
		os.Remove(p.Output)
	}
}

func (d *toolDoc) nextPath(step string) string {
	d.seq++
	return filepath.Join(d.dir, fmt.Sprintf("%02d-%s.pdf", d.seq, step))
}

func (d *toolDoc) SetInfo(field InfoField, value string) {
	if d.info == nil {
		d.info = make(map[InfoField]string)
	}
	d.info[field] = value
}

func (d *toolDoc) PageCount() int { return d.pages }

func (d *toolDoc) Close() error {
	return os.RemoveAll(d.dir)
}

// reExtracted matches pdfcpu's extracted image names: <base>_<page>_<id>.<ext>.
var reExtracted = regexp.MustCompile(`_(\d+)_([A-Za-z0-9]+)\.([A-Za-z0-9]+)$`)

// Images extracts every embedded image with pdfcpu.
func (d *toolDoc) Images(ctx context.Context) ([]Image, error) {
	if !d.codec.backends.Pdfcpu {
		return nil, fmt.Errorf("%w: image extraction needs pdfcpu", ErrUnavailable)
	}
	d.seq++
	out := filepath.Join(d.dir, fmt.Sprintf("images-%02d", d.seq))
	if err := os.Mkdir(out, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	res := d.codec.run.Run(ctx, pdftool.Pdfcpu, pdftool.ExtractImagesArgs(d.path, out)...)
	if res.Err != nil {
		return nil, fmt.Errorf("%w: extract images: %w", ErrDecode, res.Err)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var images []Image
	for _, e := range entries {
		m := reExtracted.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(out, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		page, _ := strconv.Atoi(m[1])
		images = append(images, Image{
			Page:   page,
			ID:     m[2],
			Format: formatForExt(m[3]),
			Data:   data,
		})
	}
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Page != images[j].Page {
			return images[i].Page < images[j].Page
		}
		return images[i].ID < images[j].ID
	})
	return images, nil
}

func (d *toolDoc) ReplaceImage(img Image, data []byte, format ImageFormat) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty replacement for %d/%s", ErrEncode, img.Page, img.ID)
	}
	d.replacements = append(d.replacements, replacement{img: img, data: data, format: format})
	return nil
}

func infoMap(info map[InfoField]string) map[string]string {
	m := make(map[string]string, len(info))
	for k, v := range info {
		m[string(k)] = v
	}
	return m
}

func formatForExt(ext string) ImageFormat {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	default:
		return FormatOther
	}
}

func extFor(f ImageFormat) string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}
