// Package normalize turns a generic parsed table (headers plus string rows)
// into raw transactions using a column mapping. Rows that fail date or
// amount parsing, or that have an empty description, are dropped silently:
// they are expected noise in real-world bank exports, not errors.
package normalize

import (
	"strings"

	"github.com/spendlens/spendlens/internal/domain"
)

// Keyword sets for column auto-detection, matched case-insensitively as
// substrings of the header text. A header is never reused across two roles.
var (
	dateKeywords        = []string{"date", "posted", "trans date"}
	descriptionKeywords = []string{"description", "merchant", "name", "memo", "payee", "narration"}
	amountKeywords      = []string{"amount", "debit", "credit", "total", "sum", "value"}
	categoryKeywords    = []string{"category", "type", "classification"}
)

// DetectColumns scans headers for the standard role keywords and returns a
// mapping with the first matching header per role. Roles that cannot be
// resolved are left empty.
func DetectColumns(headers []string) domain.ColumnMapping {
	used := make(map[string]bool, 4)

	pick := func(keywords []string) string {
		for _, h := range headers {
			if used[h] {
				continue
			}
			lower := strings.ToLower(h)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					used[h] = true
					return h
				}
			}
		}
		return ""
	}

	return domain.ColumnMapping{
		DateColumn:        pick(dateKeywords),
		DescriptionColumn: pick(descriptionKeywords),
		AmountColumn:      pick(amountKeywords),
		CategoryColumn:    pick(categoryKeywords),
	}
}

// ApplyMapping converts table rows into raw transactions. When any of the
// three required mapping columns does not resolve to a present header, the
// result is empty. Malformed rows are skipped, never surfaced as errors.
func ApplyMapping(table domain.TableData, mapping domain.ColumnMapping) []domain.RawTransaction {
	dateIdx := columnIndex(table.Headers, mapping.DateColumn)
	descIdx := columnIndex(table.Headers, mapping.DescriptionColumn)
	amountIdx := columnIndex(table.Headers, mapping.AmountColumn)
	if dateIdx < 0 || descIdx < 0 || amountIdx < 0 {
		return nil
	}
	categoryIdx := columnIndex(table.Headers, mapping.CategoryColumn)

	txs := make([]domain.RawTransaction, 0, len(table.Rows))
	for _, row := range table.Rows {
		if dateIdx >= len(row) || descIdx >= len(row) || amountIdx >= len(row) {
			continue
		}

		date, ok := ParseDate(row[dateIdx])
		if !ok {
			continue
		}
		amount, ok := ParseAmount(row[amountIdx])
		if !ok {
			continue
		}
		desc := strings.TrimSpace(row[descIdx])
		if desc == "" {
			continue
		}

		tx := domain.RawTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
		}
		if categoryIdx >= 0 && categoryIdx < len(row) {
			tx.RawCategory = strings.TrimSpace(row[categoryIdx])
		}
		txs = append(txs, tx)
	}
	return txs
}

func columnIndex(headers []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
