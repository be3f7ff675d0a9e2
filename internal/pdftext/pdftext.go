// Package pdftext extracts plain text from uploaded documents. PDF parsing is
// delegated; anything that is not a PDF is treated as plain text.
package pdftext

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract returns the text content of an uploaded file. PDFs are parsed page
// by page; pages that fail to extract are skipped. Other files pass through
// as-is.
func Extract(filename string, content []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return FromPDF(content)
	}
	return string(content), nil
}

// FromPDF extracts text from raw PDF bytes.
func FromPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
