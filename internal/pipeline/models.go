package pipeline

import (
	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/anomaly"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/subscriptions"
)

// CategorizationWarning is surfaced on the dashboard when the external
// classifier degraded and transactions fell back to the Other category.
const CategorizationWarning = "Automatic categorization was partially unavailable; some transactions were placed in Other."

// Dashboard is the complete derived view for one uploaded statement.
type Dashboard struct {
	Transactions  []domain.CategorizedTransaction `json:"transactions"`
	Breakdown     []analytics.CategoryTotal       `json:"breakdown"`
	Timeline      []analytics.TimelinePeriod      `json:"timeline"`
	Merchants     []analytics.MerchantTotal       `json:"merchants"`
	Summary       analytics.Summary               `json:"summary"`
	Subscriptions []domain.Subscription           `json:"subscriptions"`
	Anomalies     []domain.Anomaly                `json:"anomalies"`
	Warning       string                          `json:"warning,omitempty"`
}

// BuildDashboard recomputes every derived view from the categorized
// set. Called after the initial pipeline run and again whenever a
// category override changes the underlying transactions.
func BuildDashboard(txs []domain.CategorizedTransaction, warning string) *Dashboard {
	return &Dashboard{
		Transactions:  txs,
		Breakdown:     analytics.CategoryBreakdown(txs),
		Timeline:      analytics.SpendingTimeline(txs),
		Merchants:     analytics.TopMerchants(txs, 0),
		Summary:       analytics.Summarize(txs),
		Subscriptions: subscriptions.Detect(txs),
		Anomalies:     anomaly.Detect(txs),
		Warning:       warning,
	}
}
