package pdftext

import (
	"bytes"
	"context"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Native reads the text layer in-process. It needs no external binary but
// loses the column layout, so prices may land on the line after the dish.
type Native struct{}

// NewNative creates a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// ExtractText returns the plain text of every page.
func (n *Native) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pdftext: malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "pdftext: open pdf")
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", eris.Wrap(err, "pdftext: read text layer")
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", eris.Wrap(err, "pdftext: read text layer")
	}
	return string(out), nil
}
