package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spendlens/spendlens/internal/categorize"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/normalize"
	"github.com/spendlens/spendlens/internal/statement"
)

// PipelineStep is a single step of the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Filename string
	Data     []byte

	Table   domain.TableData
	Mapping domain.ColumnMapping

	Raw          []domain.RawTransaction
	Transactions []domain.CategorizedTransaction
	Degraded     bool

	Dashboard *Dashboard
}

// ParseFileStep turns the upload into tabular data. PDF statements go
// through text extraction and segmentation; everything else is treated
// as CSV.
type ParseFileStep struct{}

func (s *ParseFileStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(bytes.TrimSpace(state.Data)) == 0 {
		return ErrEmptyFile
	}

	if isPDF(state.Filename, state.Data) {
		table, err := statement.ParsePDF(state.Data)
		if err != nil {
			return fmt.Errorf("parse pdf statement: %w", err)
		}
		if len(table.Rows) > MaxSourceRows {
			return fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(table.Rows), MaxSourceRows)
		}
		state.Table = table
		// The segmenter emits a fixed three-column layout.
		state.Mapping = domain.ColumnMapping{
			DateColumn:        "Date",
			DescriptionColumn: "Description",
			AmountColumn:      "Amount",
		}
		return nil
	}

	table, err := ParseCSV(state.Data)
	if err != nil {
		return err
	}
	state.Table = table
	return nil
}

func isPDF(filename string, data []byte) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf") ||
		bytes.HasPrefix(data, []byte("%PDF"))
}

// NormalizeStep resolves a column mapping when the parse step did not
// fix one, then maps table rows into raw transactions. On CSV exports
// with unrecognizable headers, the first three columns are assumed to
// be date, description and amount as a last resort.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	mapping := state.Mapping
	if mapping.DateColumn == "" || mapping.DescriptionColumn == "" || mapping.AmountColumn == "" {
		mapping = normalize.DetectColumns(state.Table.Headers)
	}
	if mapping.DateColumn == "" || mapping.DescriptionColumn == "" || mapping.AmountColumn == "" {
		if len(state.Table.Headers) < 3 {
			return ErrMissingColumns
		}
		mapping = domain.ColumnMapping{
			DateColumn:        state.Table.Headers[0],
			DescriptionColumn: state.Table.Headers[1],
			AmountColumn:      state.Table.Headers[2],
		}
	}
	state.Mapping = mapping

	state.Raw = normalize.ApplyMapping(state.Table, mapping)
	if len(state.Raw) == 0 {
		return ErrNoTransactions
	}
	return nil
}

// CategorizeStep assigns categories through the gateway. Classifier
// failure is not fatal; it only marks the run degraded.
type CategorizeStep struct {
	Gateway *categorize.Gateway
}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions, state.Degraded = s.Gateway.Categorize(ctx, state.Raw)
	return nil
}

// AnalyzeStep derives the dashboard views from the categorized set.
type AnalyzeStep struct{}

func (s *AnalyzeStep) Execute(ctx context.Context, state *PipelineState) error {
	warning := ""
	if state.Degraded {
		warning = CategorizationWarning
	}
	state.Dashboard = BuildDashboard(state.Transactions, warning)
	return nil
}
