// Command analyze runs one statement file through the full pipeline and
// prints the resulting dashboard to the terminal. Useful for trying out
// an export without starting the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spendlens/spendlens/internal/categorize"
	"github.com/spendlens/spendlens/internal/format"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/pipeline"
)

func main() {
	var (
		file     = flag.String("file", "", "statement file to analyze (CSV or PDF)")
		model    = flag.String("model", os.Getenv("CLASSIFIER_MODEL"), "classifier model name (or set CLASSIFIER_MODEL env)")
		logLevel = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
		timeout  = flag.Duration("timeout", 2*time.Minute, "overall analysis timeout")
	)
	flag.Parse()

	log := logger.New(*logLevel)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: analyze -file <statement.csv|statement.pdf>")
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read file")
	}

	classifier := categorize.NewGeminiClassifier(*model)
	gateway := categorize.NewGateway(classifier, categorize.DefaultBatchSize, log)
	analyzer := pipeline.NewAnalyzer(gateway, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dash, err := analyzer.Analyze(ctx, filepath.Base(*file), data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not analyze %s: %v\n", *file, err)
		os.Exit(1)
	}

	printDashboard(dash)
}

func printDashboard(dash *pipeline.Dashboard) {
	if dash.Warning != "" {
		fmt.Printf("! %s\n\n", dash.Warning)
	}

	s := dash.Summary
	fmt.Printf("Summary (%s to %s, %d transactions)\n", s.StartDate, s.EndDate, s.TransactionCount)
	fmt.Printf("  Income:   %s\n", format.Currency(s.TotalIncome))
	fmt.Printf("  Expenses: %s\n", format.Currency(s.TotalExpenses))
	fmt.Printf("  Net:      %s\n", format.Currency(s.Net))
	fmt.Printf("  Top category: %s\n", s.TopCategory)

	if len(dash.Breakdown) > 0 {
		fmt.Println("\nSpending by category")
		for _, row := range dash.Breakdown {
			fmt.Printf("  %-15s %12s  %s\n", row.Category, format.Currency(row.Total), format.Percent(row.Percentage))
		}
	}

	if len(dash.Merchants) > 0 {
		fmt.Println("\nTop merchants")
		for _, m := range dash.Merchants {
			fmt.Printf("  %-30s %12s  (%d charges)\n", m.Name, format.Currency(m.Total), m.Count)
		}
	}

	if len(dash.Subscriptions) > 0 {
		fmt.Println("\nLikely subscriptions")
		for _, sub := range dash.Subscriptions {
			fmt.Printf("  %-30s %10s %-8s next ~%s (confidence %.2f)\n",
				sub.Merchant, format.Currency(sub.Amount), sub.Frequency, sub.NextExpectedCharge, sub.Confidence)
		}
	}

	if len(dash.Anomalies) > 0 {
		fmt.Println("\nAnomalies")
		for _, a := range dash.Anomalies {
			fmt.Printf("  [%-6s] %s %s on %s: %s\n",
				a.Severity, format.Currency(math.Abs(a.Amount)), a.Merchant, a.Date, a.Description)
		}
	}
}
