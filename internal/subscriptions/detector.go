// Package subscriptions detects recurring charges by grouping
// transactions under a normalized merchant identity and scoring how
// regular the charge interval and amount are.
package subscriptions

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/domain"
)

// Charges spaced at the median gap are matched against these targets in
// order; the first window that contains the median wins.
type frequencyTarget struct {
	frequency domain.SubscriptionFrequency
	days      int
	tolerance int
}

var frequencyTargets = []frequencyTarget{
	{domain.FrequencyWeekly, 7, 1},
	{domain.FrequencyMonthly, 30, 3},
	{domain.FrequencyYearly, 365, 15},
}

var (
	trailingIDRe = regexp.MustCompile(`[\s#\-_]+\d+$`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// normalizeMerchant canonicalizes a transaction description into a
// merchant identity key. Trailing store/reference numbers are stripped
// so "STARBUCKS #1234" and "STARBUCKS #5678" group together.
func normalizeMerchant(desc string) string {
	s := strings.ToLower(strings.TrimSpace(desc))
	s = trailingIDRe.ReplaceAllString(s, "")
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// Detect returns likely subscriptions, sorted by monthly-equivalent
// cost descending, with sequential ids assigned after sorting.
func Detect(txs []domain.CategorizedTransaction) []domain.Subscription {
	type group struct {
		display string
		txs     []domain.CategorizedTransaction
	}
	groups := make(map[string]*group)
	var order []string

	for _, tx := range txs {
		key := normalizeMerchant(tx.Description)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{display: strings.TrimSpace(tx.Description)}
			groups[key] = g
			order = append(order, key)
		}
		g.txs = append(g.txs, tx)
	}

	var subs []domain.Subscription
	for _, key := range order {
		if sub, ok := scoreGroup(groups[key].display, groups[key].txs); ok {
			subs = append(subs, sub)
		}
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return monthlyCost(subs[i]) > monthlyCost(subs[j])
	})
	for i := range subs {
		subs[i].ID = fmt.Sprintf("sub-%d", i)
	}
	return subs
}

func scoreGroup(display string, txs []domain.CategorizedTransaction) (domain.Subscription, bool) {
	if len(txs) < 2 {
		return domain.Subscription{}, false
	}

	sorted := make([]domain.CategorizedTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, daysBetween(sorted[i-1].Date, sorted[i].Date))
	}

	median := medianGap(gaps)

	var matched *frequencyTarget
	for i := range frequencyTargets {
		t := &frequencyTargets[i]
		if abs(median-t.days) <= t.tolerance {
			matched = t
			break
		}
	}
	if matched == nil {
		return domain.Subscription{}, false
	}

	within := 0
	for _, g := range gaps {
		if abs(g-matched.days) <= matched.tolerance {
			within++
		}
	}
	intervalScore := float64(within) / float64(len(gaps))
	if intervalScore < 0.5 {
		return domain.Subscription{}, false
	}

	var total float64
	for _, tx := range sorted {
		total += math.Abs(tx.Amount)
	}
	mean := total / float64(len(sorted))

	var maxDeviation float64
	if mean > 0 {
		for _, tx := range sorted {
			d := math.Abs(math.Abs(tx.Amount)-mean) / mean
			if d > maxDeviation {
				maxDeviation = d
			}
		}
	}
	amountScore := deviationScore(maxDeviation)

	confidence := round2(intervalScore*0.6 + amountScore*0.4)
	if confidence <= 0.5 {
		return domain.Subscription{}, false
	}

	last := sorted[len(sorted)-1].Date
	ids := make([]string, len(sorted))
	for i, tx := range sorted {
		ids[i] = tx.ID
	}

	return domain.Subscription{
		Merchant:           display,
		Amount:             round2(mean),
		Frequency:          matched.frequency,
		Confidence:         confidence,
		LastCharge:         last,
		NextExpectedCharge: addDays(last, matched.days),
		TotalSpent:         round2(total),
		Occurrences:        len(sorted),
		TransactionIDs:     ids,
	}, true
}

func deviationScore(maxDeviation float64) float64 {
	switch {
	case maxDeviation <= 0.05:
		return 1.0
	case maxDeviation <= 0.10:
		return 0.9
	case maxDeviation <= 0.20:
		return 0.7
	case maxDeviation <= 0.35:
		return 0.5
	default:
		return 0.3
	}
}

// medianGap returns the upper median of the gaps.
func medianGap(gaps []int) int {
	sorted := make([]int, len(gaps))
	copy(sorted, gaps)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func monthlyCost(s domain.Subscription) float64 {
	switch s.Frequency {
	case domain.FrequencyWeekly:
		return s.Amount * 52 / 12
	case domain.FrequencyYearly:
		return s.Amount / 12
	default:
		return s.Amount
	}
}

func daysBetween(a, b string) int {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

func addDays(date string, days int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
