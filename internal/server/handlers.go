package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ranjanmadhu/pdf-compressor/internal/naming"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
	"github.com/ranjanmadhu/pdf-compressor/internal/probe"
)

const (
	// multipartOverhead is the slack allowed on top of MaxFileSize for the
	// multipart envelope and the option fields.
	multipartOverhead = 1 << 20

	maxErrorLen = 200
)

// handleCompress accepts a multipart upload in field "pdf", compresses it
// with the optional per-request overrides, and streams the result back as
// an attachment. format=json returns the CompressionResult instead.
func (s *Server) handleCompress(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxFileSize+multipartOverhead)

	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds maximum allowed size"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file size %d exceeds maximum allowed %d bytes", header.Size, s.cfg.MaxFileSize),
		})
		return
	}

	override, err := parseOverride(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.comp.Options().Merge(override).Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		s.log.Error("Failed to create temp directory %s: %v", s.cfg.TempDir, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}

	id := uuid.NewString()
	inFile := filepath.Join(s.cfg.TempDir, "input_"+id+".pdf")
	outFile := filepath.Join(s.cfg.TempDir, "output_"+id+".pdf")
	defer s.removeTemp(inFile, outFile)

	if err := saveUpload(file, inFile); err != nil {
		s.log.Error("Failed to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save input file"})
		return
	}
	if _, err := probe.SniffHeader(inFile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid PDF file: header does not match"})
		return
	}

	res, err := s.comp.Compress(c.Request.Context(), inFile, outFile, override)
	if err != nil {
		s.log.Error("Compression failed for %s: %v", header.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": truncate(err.Error(), maxErrorLen)})
		return
	}

	name := sanitizeFilename(header.Filename)
	download := naming.SuffixPath(name, naming.DefaultSuffix)
	// Temp paths are meaningless to the client.
	res.InputPath = name
	res.OutputPath = download
	s.log.Info("Compressed %s: %d -> %d bytes (%s)", name, res.InputSize, res.OutputSize, res.PercentReduction)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, res)
		return
	}

	c.Header("X-Original-Size", strconv.FormatInt(res.InputSize, 10))
	c.Header("X-Compressed-Size", strconv.FormatInt(res.OutputSize, 10))
	c.Header("X-Percent-Reduction", res.PercentReduction)
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download))
	c.File(outFile)
}

func wantsJSON(c *gin.Context) bool {
	if c.Query("format") == "json" {
		return true
	}
	return c.PostForm("format") == "json"
}

// parseOverride reads the optional option fields from the form. Absent or
// empty fields keep the server's base value.
func parseOverride(c *gin.Context) (options.Override, error) {
	var ov options.Override
	var err error
	if ov.OptimizeImages, err = formBool(c, "optimizeImages"); err != nil {
		return ov, err
	}
	if ov.ImageQuality, err = formInt(c, "imageQuality"); err != nil {
		return ov, err
	}
	if ov.RemoveMetadata, err = formBool(c, "removeMetadata"); err != nil {
		return ov, err
	}
	if ov.CompressionLevel, err = formInt(c, "compressionLevel"); err != nil {
		return ov, err
	}
	if ov.Grayscale, err = formBool(c, "grayscale"); err != nil {
		return ov, err
	}
	return ov, nil
}

func formBool(c *gin.Context, name string) (*bool, error) {
	v, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%s: expected true or false, got %q", name, v)
	}
	return &b, nil
}

func formInt(c *gin.Context, name string) (*int, error) {
	v, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%s: expected an integer, got %q", name, v)
	}
	return &n, nil
}

func saveUpload(src multipart.File, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) removeTemp(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Could not remove temp file %s: %v", p, err)
		}
	}
}

// sanitizeFilename removes path traversal attempts and directory separators.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
