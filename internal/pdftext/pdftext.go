// Package pdftext pulls the text layer out of menu PDFs.
package pdftext

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lunch-cli/internal/config"
)

// Extractor extracts the text layer of a PDF document.
type Extractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.PDFConfig) (Extractor, error) {
	switch cfg.Provider {
	case "pdftotext", "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "native":
		return NewNative(), nil
	default:
		return nil, eris.Errorf("pdftext: unknown provider %q", cfg.Provider)
	}
}
