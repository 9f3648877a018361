package services

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfPageCount parses the document trailer and returns its page count.
// The parser panics on some malformed inputs, so panics become errors.
func pdfPageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	pages = reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("parse pdf: document has no pages")
	}
	return pages, nil
}
