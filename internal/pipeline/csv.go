package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spendlens/spendlens/internal/domain"
)

// ParseCSV reads an uploaded CSV export into the tabular shape consumed
// by normalization. The first record is the header row. Ragged rows are
// tolerated; normalization drops whatever cannot be mapped.
func ParseCSV(data []byte) (domain.TableData, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.TableData{}, ErrEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return domain.TableData{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return domain.TableData{}, ErrEmptyFile
	}
	if len(records)-1 > MaxSourceRows {
		return domain.TableData{}, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(records)-1, MaxSourceRows)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return domain.TableData{Headers: headers, Rows: records[1:]}, nil
}
