package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/categorize"
	"github.com/spendlens/spendlens/internal/domain"
)

type stubClassifier struct {
	category string
	err      error
}

func (s *stubClassifier) Classify(_ context.Context, items []categorize.Item) ([]categorize.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([]categorize.Result, len(items))
	for i := range items {
		results[i] = categorize.Result{Index: i, Category: s.category, Confidence: 0.9}
	}
	return results, nil
}

func newTestAnalyzer(c categorize.Classifier) *Analyzer {
	return NewAnalyzer(categorize.NewGateway(c, 50, zerolog.Nop()), zerolog.Nop())
}

func TestAnalyzeFlagsDuplicateCharge(t *testing.T) {
	csv := "Date,Description,Amount\n" +
		"2024-01-05,COFFEE SHOP,-4.50\n" +
		"2024-01-05,COFFEE SHOP,-4.50\n"
	a := newTestAnalyzer(&stubClassifier{category: "Dining"})

	dash, err := a.Analyze(context.Background(), "export.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(dash.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(dash.Transactions))
	}
	for i, tx := range dash.Transactions {
		if tx.Category != domain.CategoryDining {
			t.Errorf("tx %d category = %s, want Dining", i, tx.Category)
		}
	}
	if len(dash.Anomalies) != 1 {
		t.Fatalf("got %d anomalies, want exactly 1: %+v", len(dash.Anomalies), dash.Anomalies)
	}
	a0 := dash.Anomalies[0]
	if a0.Type != domain.AnomalyDuplicate {
		t.Errorf("anomaly type = %s, want duplicate", a0.Type)
	}
	if a0.TransactionID != dash.Transactions[1].ID {
		t.Errorf("flagged %s, want the second row %s", a0.TransactionID, dash.Transactions[1].ID)
	}
	if dash.Warning != "" {
		t.Errorf("unexpected warning %q", dash.Warning)
	}
}

func TestAnalyzeDegradesOnClassifierFailure(t *testing.T) {
	csv := "Date,Description,Amount\n" +
		"2024-01-05,WHOLE FOODS,-60.00\n" +
		"2024-01-06,COFFEE SHOP,-4.50\n"
	a := newTestAnalyzer(&stubClassifier{err: errors.New("service down")})

	dash, err := a.Analyze(context.Background(), "export.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded success", err)
	}
	for i, tx := range dash.Transactions {
		if tx.Category != domain.CategoryOther || tx.Confidence != 0 {
			t.Errorf("tx %d = %s/%v, want Other/0", i, tx.Category, tx.Confidence)
		}
	}
	if dash.Warning != CategorizationWarning {
		t.Errorf("warning = %q, want categorization warning", dash.Warning)
	}
}

func TestAnalyzeEmptyFile(t *testing.T) {
	a := newTestAnalyzer(&stubClassifier{category: "Other"})
	if _, err := a.Analyze(context.Background(), "export.csv", []byte("  \n ")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("error = %v, want ErrEmptyFile", err)
	}
}

func TestAnalyzeHeaderOnly(t *testing.T) {
	a := newTestAnalyzer(&stubClassifier{category: "Other"})
	if _, err := a.Analyze(context.Background(), "export.csv", []byte("Date,Description,Amount\n")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("error = %v, want ErrEmptyFile", err)
	}
}

func TestAnalyzeTooManyRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for i := 0; i <= MaxSourceRows; i++ {
		fmt.Fprintf(&b, "2024-01-05,SHOP %d,-1.00\n", i)
	}
	a := newTestAnalyzer(&stubClassifier{category: "Other"})
	if _, err := a.Analyze(context.Background(), "export.csv", []byte(b.String())); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("error = %v, want ErrTooManyRows", err)
	}
}

func TestAnalyzePositionalFallbackMapping(t *testing.T) {
	csv := "When,Who,How Much\n" +
		"2024-01-05,WHOLE FOODS,-60.00\n"
	a := newTestAnalyzer(&stubClassifier{category: "Groceries"})

	dash, err := a.Analyze(context.Background(), "export.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(dash.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 via positional mapping", len(dash.Transactions))
	}
	if dash.Transactions[0].Description != "WHOLE FOODS" {
		t.Errorf("description = %q", dash.Transactions[0].Description)
	}
}

func TestAnalyzeUnmappableTwoColumnTable(t *testing.T) {
	csv := "Foo,Bar\nx,y\n"
	a := newTestAnalyzer(&stubClassifier{category: "Other"})
	if _, err := a.Analyze(context.Background(), "export.csv", []byte(csv)); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("error = %v, want ErrMissingColumns", err)
	}
}

func TestAnalyzeAllRowsMalformed(t *testing.T) {
	csv := "Date,Description,Amount\n" +
		"not-a-date,SHOP,-1.00\n" +
		"2024-01-05,,abc\n"
	a := newTestAnalyzer(&stubClassifier{category: "Other"})
	if _, err := a.Analyze(context.Background(), "export.csv", []byte(csv)); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("error = %v, want ErrNoTransactions", err)
	}
}

func TestParseCSVStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Description,Amount\n2024-01-05,SHOP,-1.00\n")...)
	table, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if table.Headers[0] != "Date" {
		t.Errorf("first header = %q, want BOM removed", table.Headers[0])
	}
}
