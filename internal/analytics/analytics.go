// Package analytics derives dashboard views from a finalized set of
// categorized transactions. Every function is pure and recomputes from
// scratch; nothing here holds state between calls.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/spendlens/spendlens/internal/domain"
)

// DefaultMerchantLimit bounds TopMerchants when the caller passes a
// non-positive limit.
const DefaultMerchantLimit = 10

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category   domain.Category `json:"category"`
	Total      float64         `json:"total"`
	Percentage float64         `json:"percentage"`
}

// TimelinePeriod aggregates one calendar month. ByCategory always holds
// all twelve categories, zero-filled.
type TimelinePeriod struct {
	Month      string                      `json:"month"`
	Total      float64                     `json:"total"`
	ByCategory map[domain.Category]float64 `json:"byCategory"`
}

// MerchantTotal is one row of the merchant ranking.
type MerchantTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Summary holds headline statistics for the whole transaction set.
type Summary struct {
	TotalExpenses    float64         `json:"totalExpenses"`
	TotalIncome      float64         `json:"totalIncome"`
	Net              float64         `json:"net"`
	TopCategory      domain.Category `json:"topCategory"`
	StartDate        string          `json:"startDate"`
	EndDate          string          `json:"endDate"`
	TransactionCount int             `json:"transactionCount"`
}

// CategoryBreakdown sums absolute amounts per spending category,
// excluding cash-flow categories, with each row's percentage of the
// included total. Rows are sorted by total descending.
func CategoryBreakdown(txs []domain.CategorizedTransaction) []CategoryTotal {
	totals := make(map[domain.Category]float64)
	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		totals[tx.Category] += math.Abs(tx.Amount)
	}

	var grand float64
	for _, t := range totals {
		grand += t
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, c := range domain.Categories {
		t, ok := totals[c]
		if !ok {
			continue
		}
		pct := 0.0
		if grand > 0 {
			pct = t / grand * 100
		}
		out = append(out, CategoryTotal{Category: c, Total: round2(t), Percentage: round2(pct)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// SpendingTimeline groups transactions by calendar month, ascending.
func SpendingTimeline(txs []domain.CategorizedTransaction) []TimelinePeriod {
	months := make(map[string]*TimelinePeriod)
	for _, tx := range txs {
		if len(tx.Date) < 7 {
			continue
		}
		key := tx.Date[:7]
		period, ok := months[key]
		if !ok {
			period = &TimelinePeriod{Month: key, ByCategory: make(map[domain.Category]float64, len(domain.Categories))}
			for _, c := range domain.Categories {
				period.ByCategory[c] = 0
			}
			months[key] = period
		}
		abs := math.Abs(tx.Amount)
		period.Total += abs
		period.ByCategory[tx.Category] += abs
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]TimelinePeriod, len(keys))
	for i, k := range keys {
		p := months[k]
		p.Total = round2(p.Total)
		for c, v := range p.ByCategory {
			p.ByCategory[c] = round2(v)
		}
		out[i] = *p
	}
	return out
}

// TopMerchants ranks merchants by total absolute spend, excluding
// cash-flow categories. Merchant identity is the trimmed lowercase
// description; the display name keeps the first-seen casing.
func TopMerchants(txs []domain.CategorizedTransaction, limit int) []MerchantTotal {
	if limit <= 0 {
		limit = DefaultMerchantLimit
	}

	type bucket struct {
		display string
		total   float64
		count   int
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		display := strings.TrimSpace(tx.Description)
		key := strings.ToLower(display)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{display: display}
			buckets[key] = b
			order = append(order, key)
		}
		b.total += math.Abs(tx.Amount)
		b.count++
	}

	out := make([]MerchantTotal, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		out = append(out, MerchantTotal{Name: b.display, Total: round2(b.total), Count: b.count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize computes headline totals and the covered date range. Date
// comparisons are lexical, which is ordering-correct for fixed-width
// ISO dates.
func Summarize(txs []domain.CategorizedTransaction) Summary {
	s := Summary{TopCategory: domain.CategoryOther, TransactionCount: len(txs)}

	categoryTotals := make(map[domain.Category]float64)
	for _, tx := range txs {
		if tx.Amount < 0 {
			s.TotalExpenses += -tx.Amount
		} else {
			s.TotalIncome += tx.Amount
		}
		if !tx.Category.IsCashFlow() {
			categoryTotals[tx.Category] += math.Abs(tx.Amount)
		}
		if s.StartDate == "" || tx.Date < s.StartDate {
			s.StartDate = tx.Date
		}
		if s.EndDate == "" || tx.Date > s.EndDate {
			s.EndDate = tx.Date
		}
	}

	var best float64
	for _, c := range domain.Categories {
		if t := categoryTotals[c]; t > best {
			best = t
			s.TopCategory = c
		}
	}

	s.TotalExpenses = round2(s.TotalExpenses)
	s.TotalIncome = round2(s.TotalIncome)
	s.Net = round2(s.TotalIncome - s.TotalExpenses)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
