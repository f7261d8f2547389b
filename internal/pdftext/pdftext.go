// Package pdftext extracts per-page plain text from PDF plan sets using a
// pure Go reader, so the pipeline needs no external tooling.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one page's extracted text. Numbers are 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages reads every page of a PDF and returns its plain text.
// Pages whose text cannot be decoded are returned with empty text rather
// than dropped, so page numbering stays aligned with the document.
func ExtractPages(content []byte) ([]Page, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty pdf content")
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	pages := make([]Page, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	return pages, nil
}

// FullText joins all page texts with blank lines, the form the index and
// spec extractors consume.
func FullText(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
