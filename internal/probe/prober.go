package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/ranjanmadhu/pdf-compressor/internal/pdftool"
)

// ErrNotPDF is returned by [SniffHeader] when the file lacks a PDF header.
var ErrNotPDF = errors.New("not a PDF file")

// sniffWindow is how far into the file the header may start. Some producers
// prepend junk before %PDF-, which readers tolerate.
const sniffWindow = 1024

var pdfMagic = []byte("%PDF-")

// SniffHeader checks that path starts with a PDF header within the first
// kilobyte and returns the header version (e.g. "1.7").
func SniffHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return SniffBytes(buf[:n])
}

// SniffBytes is [SniffHeader] for data already in memory.
func SniffBytes(data []byte) (string, error) {
	if len(data) > sniffWindow {
		data = data[:sniffWindow]
	}
	i := bytes.Index(data, pdfMagic)
	if i < 0 {
		return "", ErrNotPDF
	}
	rest := data[i+len(pdfMagic):]
	end := 0
	for end < len(rest) && end < 3 && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	return string(rest[:end]), nil
}

// Probe runs a single pdfcpu info call against path and returns the parsed
// result.
func Probe(ctx context.Context, r pdftool.Runner, path string) (*ProbeResult, error) {
	res := r.Run(ctx, pdftool.Pdfcpu, pdftool.InfoArgs(path)...)
	if res.Err != nil {
		return nil, fmt.Errorf("pdfcpu info %q: %w", path, res.Err)
	}
	return ParseJSON([]byte(res.Stdout))
}

// ParseJSON converts raw pdfcpu info JSON into a ProbeResult.
// Exported for testing without a real pdfcpu binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw pdfcpuInfoOutput
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse pdfcpu JSON: %w", err)
	}
	if len(raw.Infos) == 0 {
		return nil, errors.New("parse pdfcpu JSON: no document info")
	}
	return buildResult(&raw.Infos[0]), nil
}

// --- pdfcpu JSON wire types ---

type pdfcpuInfoOutput struct {
	Header struct {
		Version string `json:"version"`
	} `json:"header"`
	Infos []pdfcpuInfo `json:"infos"`
}

type pdfcpuInfo struct {
	Source             string   `json:"source"`
	Version            string   `json:"version"`
	PageCount          int      `json:"pageCount"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	Subject            string   `json:"subject"`
	Keywords           []string `json:"keywords"`
	Creator            string   `json:"creator"`
	Producer           string   `json:"producer"`
	Tagged             bool     `json:"tagged"`
	Linearized         bool     `json:"linearized"`
	UsingObjectStreams bool     `json:"usingObjectStreams"`
	Form               bool     `json:"form"`
	Encrypted          bool     `json:"encrypted"`
}

func buildResult(in *pdfcpuInfo) *ProbeResult {
	return &ProbeResult{
		Source:             in.Source,
		Version:            in.Version,
		PageCount:          in.PageCount,
		Encrypted:          in.Encrypted,
		Linearized:         in.Linearized,
		Tagged:             in.Tagged,
		UsingObjectStreams: in.UsingObjectStreams,
		HasForm:            in.Form,
		Info: Info{
			Title:    in.Title,
			Author:   in.Author,
			Subject:  in.Subject,
			Keywords: in.Keywords,
			Creator:  in.Creator,
			Producer: in.Producer,
		},
	}
}
