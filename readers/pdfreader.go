package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds the extracted text of a single PDF page. Page numbers are
// 1-based.
type Page struct {
	Num  int
	Text string
}

type PdfReader struct{}

func (r *PdfReader) CanRead(path string) bool {
	return filepath.Ext(path) == ".pdf"
}

// ReadPages extracts the text of every page in order, skipping pages that
// yield no text. The underlying parser panics on some malformed files;
// panics are recovered and returned as errors.
func (r *PdfReader) ReadPages(path string) (pages []Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("failed to parse pdf: %v", rec)
		}
	}()

	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, e := page.GetPlainText(nil)
		if e != nil || strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, Page{Num: i, Text: text})
	}

	return pages, nil
}
