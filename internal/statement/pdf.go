package statement

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/spendlens/spendlens/internal/domain"
)

// ExtractText reads the positioned text fragments of every page of a PDF
// document, in document order. Pages without a text layer contribute no
// items; the caller decides whether the document as a whole had enough
// text to be usable.
func ExtractText(data []byte) ([][]TextItem, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("statement: opening PDF: %w", err)
	}

	pages := make([][]TextItem, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		items := make([]TextItem, 0, len(content.Text))
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			items = append(items, TextItem{Text: t.S, X: t.X, Y: t.Y})
		}
		pages = append(pages, items)
	}
	return pages, nil
}

// ParsePDF is the full PDF path: extract positioned text, then segment it
// into transaction rows.
func ParsePDF(data []byte) (domain.TableData, error) {
	pages, err := ExtractText(data)
	if err != nil {
		return domain.TableData{}, err
	}
	return Parse(pages)
}
