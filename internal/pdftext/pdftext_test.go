package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lunch-cli/internal/config"
)

func TestNewExtractor_Default(t *testing.T) {
	ext, err := NewExtractor(config.PDFConfig{})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_Native(t *testing.T) {
	ext, err := NewExtractor(config.PDFConfig{Provider: "native"})
	require.NoError(t, err)
	assert.IsType(t, &Native{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.PDFConfig{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "mistral"`)
}

func TestPdfToText_BinPath(t *testing.T) {
	assert.Equal(t, "pdftotext", NewPdfToText("").binPath)
	assert.Equal(t, "/opt/bin/pdftotext", NewPdfToText("/opt/bin/pdftotext").binPath)
}

func TestPdfToText_BinaryNotFound(t *testing.T) {
	_, err := NewPdfToText("/nonexistent/pdftotext").ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPdfToText_Success(t *testing.T) {
	fakeBin := filepath.Join(t.TempDir(), "pdftotext")
	script := "#!/bin/sh\necho 'PONDĚLÍ'\necho 'Cheeseburger  219 Kč'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	text, err := NewPdfToText(fakeBin).ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Contains(t, text, "Cheeseburger  219 Kč")
}

func TestNative_RejectsGarbage(t *testing.T) {
	_, err := NewNative().ExtractText(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}

func TestNative_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNative().ExtractText(ctx, []byte("%PDF"))
	assert.ErrorIs(t, err, context.Canceled)
}
