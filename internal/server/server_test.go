package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
	"github.com/ranjanmadhu/pdf-compressor/internal/config"
	"github.com/ranjanmadhu/pdf-compressor/internal/logging"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() { gin.SetMode(gin.TestMode) }

// halvingCompressor writes the first half of the input and records the
// override of every call.
type halvingCompressor struct {
	mu        sync.Mutex
	overrides []options.Override
	fail      error
}

func (h *halvingCompressor) Options() options.Options { return options.Default() }

func (h *halvingCompressor) Compress(_ context.Context, in, out string, ov options.Override) (*compress.CompressionResult, error) {
	h.mu.Lock()
	h.overrides = append(h.overrides, ov)
	h.mu.Unlock()
	if h.fail != nil {
		return nil, h.fail
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, data[:len(data)/2], 0o644); err != nil {
		return nil, err
	}
	return compress.NewResult(in, out, int64(len(data)), int64(len(data)/2)), nil
}

func pdfBody(n int) []byte {
	b := bytes.Repeat([]byte("x"), n)
	copy(b, "%PDF-1.7\n")
	return b
}

// upload builds a multipart request for /api/pdf/compress.
func upload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if content != nil {
		fw, err := w.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/pdf/compress", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, comp Compressor, mutate func(*config.ServeConfig)) *Server {
	t.Helper()
	cfg := config.DefaultConfig().Serve
	cfg.TempDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, comp, logging.Discard())
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &halvingCompressor{}, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])
}

func TestCompress_ReturnsAttachment(t *testing.T) {
	comp := &halvingCompressor{}
	s := newTestServer(t, comp, nil)
	rec := serve(s, upload(t, "report.pdf", pdfBody(1000), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report-compressed.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1000", rec.Header().Get("X-Original-Size"))
	assert.Equal(t, "500", rec.Header().Get("X-Compressed-Size"))
	assert.Equal(t, "50.00%", rec.Header().Get("X-Percent-Reduction"))
	assert.Equal(t, 500, rec.Body.Len())
	require.Len(t, comp.overrides, 1)
	assert.True(t, comp.overrides[0].IsZero())
}

func TestCompress_JSONFormat(t *testing.T) {
	s := newTestServer(t, &halvingCompressor{}, nil)
	rec := serve(s, upload(t, "scan.pdf", pdfBody(800), map[string]string{"format": "json"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res compress.CompressionResult
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(800), res.InputSize)
	assert.Equal(t, int64(400), res.OutputSize)
	assert.Equal(t, int64(400), res.Savings)
	assert.Equal(t, "scan.pdf", res.InputPath)
	assert.Equal(t, "scan-compressed.pdf", res.OutputPath)
}

func TestCompress_FormOverrides(t *testing.T) {
	comp := &halvingCompressor{}
	s := newTestServer(t, comp, nil)
	rec := serve(s, upload(t, "a.pdf", pdfBody(100), map[string]string{
		"imageQuality":     "40",
		"compressionLevel": "5",
		"grayscale":        "true",
		"removeMetadata":   "false",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, comp.overrides, 1)
	ov := comp.overrides[0]
	require.NotNil(t, ov.ImageQuality)
	assert.Equal(t, 40, *ov.ImageQuality)
	assert.Equal(t, 5, *ov.CompressionLevel)
	assert.True(t, *ov.Grayscale)
	assert.False(t, *ov.RemoveMetadata)
	assert.Nil(t, ov.OptimizeImages)
}

func TestCompress_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		fields  map[string]string
	}{
		{"no file", nil, nil},
		{"not a pdf", []byte("GIF89a not a document"), nil},
		{"quality out of range", pdfBody(100), map[string]string{"imageQuality": "0"}},
		{"level out of range", pdfBody(100), map[string]string{"compressionLevel": "9"}},
		{"bool garbage", pdfBody(100), map[string]string{"grayscale": "maybe"}},
		{"int garbage", pdfBody(100), map[string]string{"imageQuality": "high"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := &halvingCompressor{}
			s := newTestServer(t, comp, nil)
			rec := serve(s, upload(t, "a.pdf", tt.content, tt.fields))

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Empty(t, comp.overrides, "compressor must not run")
		})
	}
}

func TestCompress_TooLarge(t *testing.T) {
	comp := &halvingCompressor{}
	s := newTestServer(t, comp, func(c *config.ServeConfig) { c.MaxFileSize = 100 })
	rec := serve(s, upload(t, "big.pdf", pdfBody(1000), nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, comp.overrides)
}

func TestCompress_FailureIs500AndCleansUp(t *testing.T) {
	dir := t.TempDir()
	comp := &halvingCompressor{fail: errors.New(strings.Repeat("e", 500))}
	s := newTestServer(t, comp, func(c *config.ServeConfig) { c.TempDir = dir })
	rec := serve(s, upload(t, "a.pdf", pdfBody(100), nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["error"], maxErrorLen+3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "__etc_passwd"},
		{`dir\sub\x.pdf`, "dir_sub_x.pdf"},
		{"   ", "document.pdf"},
		{"", "document.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "sanitizeFilename(%q)", tt.in)
	}
}

func TestAuth_ProtectsAPI(t *testing.T) {
	s := newTestServer(t, &halvingCompressor{}, func(c *config.ServeConfig) { c.AuthSecret = testSecret })

	rec := serve(s, upload(t, "a.pdf", pdfBody(100), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	token, err := s.auth.Issue("ci", time.Hour)
	require.NoError(t, err)
	req := upload(t, "a.pdf", pdfBody(100), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Health stays open.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_RejectsWeakSecret(t *testing.T) {
	cfg := config.DefaultConfig().Serve
	cfg.AuthSecret = "short"
	_, err := New(cfg, &halvingCompressor{}, logging.Discard())
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, &halvingCompressor{}, func(c *config.ServeConfig) { c.Addr = "127.0.0.1:0" })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(GracefulShutdownTimeout):
		t.Fatal("server did not shut down")
	}
}
