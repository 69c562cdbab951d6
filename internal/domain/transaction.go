package domain

// RawTransaction is one normalized transaction before category assignment.
// Dates are ISO calendar dates ("2006-01-02"); amounts are signed, with
// negative meaning expense and positive meaning income or credit.
// Immutable once created.
type RawTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	RawCategory string  `json:"rawCategory,omitempty"` // source-provided label, if any
}

// CategorizedTransaction is a raw transaction plus its assigned category.
// ID is assigned at categorization time and is stable for the session.
// IsOverridden flips to true exactly once when the user reassigns the
// category manually; from then on the category is never touched by
// re-categorization.
type CategorizedTransaction struct {
	RawTransaction
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Confidence   float64  `json:"confidence"` // in [0,1]
	IsOverridden bool     `json:"isOverridden"`
}

// ColumnMapping maps the three required transaction roles (plus an optional
// category role) onto source table headers. All three required fields must
// resolve to existing columns or normalization yields zero transactions.
type ColumnMapping struct {
	DateColumn        string `json:"dateColumn"`
	DescriptionColumn string `json:"descriptionColumn"`
	AmountColumn      string `json:"amountColumn"`
	CategoryColumn    string `json:"categoryColumn,omitempty"`
}

// TableData is the tabular shape shared by the CSV and PDF parsing paths.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// SubscriptionFrequency is the detected billing cycle of a subscription.
type SubscriptionFrequency string

const (
	FrequencyWeekly  SubscriptionFrequency = "weekly"
	FrequencyMonthly SubscriptionFrequency = "monthly"
	FrequencyYearly  SubscriptionFrequency = "yearly"
)

// Subscription is a derived, read-only view of a recurring charge. It is
// recomputed from scratch on every analytics pass and never mutated.
type Subscription struct {
	ID                 string                `json:"id"`
	Merchant           string                `json:"merchant"`
	Amount             float64               `json:"amount"` // representative per-cycle amount
	Frequency          SubscriptionFrequency `json:"frequency"`
	Confidence         float64               `json:"confidence"`
	LastCharge         string                `json:"lastCharge"`
	NextExpectedCharge string                `json:"nextExpectedCharge"`
	TotalSpent         float64               `json:"totalSpent"`
	Occurrences        int                   `json:"occurrences"`
	TransactionIDs     []string              `json:"transactionIds"`
}

// AnomalyType identifies which detector produced an anomaly.
type AnomalyType string

const (
	AnomalyUnusuallyLarge AnomalyType = "unusually_large"
	AnomalyNewMerchant    AnomalyType = "new_merchant"
	AnomalyCategorySpike  AnomalyType = "category_spike"
	AnomalyDuplicate      AnomalyType = "duplicate"
	AnomalyUnusualTiming  AnomalyType = "unusual_timing"
)

// AnomalySeverity is the ordinal ranking used to pick a single
// representative anomaly per transaction.
type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "low"
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high"
)

// Rank orders severities; higher is more severe.
func (s AnomalySeverity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Anomaly flags one transaction as suspicious. At most one anomaly exists
// per transaction in final output; the highest severity wins.
type Anomaly struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	Type          AnomalyType     `json:"type"`
	Severity      AnomalySeverity `json:"severity"`
	Description   string          `json:"description"`
	Amount        float64         `json:"amount"`
	Merchant      string          `json:"merchant"`
	Date          string          `json:"date"`
}
