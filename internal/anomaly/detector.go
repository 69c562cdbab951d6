// Package anomaly flags suspicious transactions using five independent
// heuristics: unusually large charges, first-time merchants, monthly
// category spikes, near-duplicate charges and outsized weekend spending.
// Each transaction keeps at most one anomaly, the highest severity found.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/format"
)

// Detect runs every heuristic over the categorized set and returns the
// merged result, sorted by severity then absolute amount descending,
// with sequential ids assigned after sorting.
func Detect(txs []domain.CategorizedTransaction) []domain.Anomaly {
	var candidates []domain.Anomaly
	candidates = append(candidates, detectUnusuallyLarge(txs)...)
	candidates = append(candidates, detectNewMerchants(txs)...)
	candidates = append(candidates, detectCategorySpikes(txs)...)
	candidates = append(candidates, detectDuplicates(txs)...)
	candidates = append(candidates, detectUnusualTiming(txs)...)

	merged := mergeBySeverity(candidates)

	sort.SliceStable(merged, func(i, j int) bool {
		ri, rj := merged[i].Severity.Rank(), merged[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return math.Abs(merged[i].Amount) > math.Abs(merged[j].Amount)
	})
	for i := range merged {
		merged[i].ID = fmt.Sprintf("anomaly-%d", i)
	}
	return merged
}

// mergeBySeverity keeps one anomaly per transaction. The first
// candidate encountered wins unless a later one is strictly more severe.
func mergeBySeverity(candidates []domain.Anomaly) []domain.Anomaly {
	best := make(map[string]int)
	var order []string
	kept := make(map[string]domain.Anomaly)

	for i, c := range candidates {
		prev, seen := best[c.TransactionID]
		if !seen {
			best[c.TransactionID] = i
			kept[c.TransactionID] = c
			order = append(order, c.TransactionID)
			continue
		}
		if c.Severity.Rank() > candidates[prev].Severity.Rank() {
			best[c.TransactionID] = i
			kept[c.TransactionID] = c
		}
	}

	out := make([]domain.Anomaly, 0, len(order))
	for _, id := range order {
		out = append(out, kept[id])
	}
	return out
}

func anomalyFor(tx domain.CategorizedTransaction, typ domain.AnomalyType, sev domain.AnomalySeverity, desc string) domain.Anomaly {
	return domain.Anomaly{
		TransactionID: tx.ID,
		Type:          typ,
		Severity:      sev,
		Description:   desc,
		Amount:        tx.Amount,
		Merchant:      strings.TrimSpace(tx.Description),
		Date:          tx.Date,
	}
}

// detectUnusuallyLarge flags transactions more than twice their
// category's mean absolute amount. Categories need at least 3 members.
func detectUnusuallyLarge(txs []domain.CategorizedTransaction) []domain.Anomaly {
	byCategory := make(map[domain.Category][]domain.CategorizedTransaction)
	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		byCategory[tx.Category] = append(byCategory[tx.Category], tx)
	}

	var out []domain.Anomaly
	for _, cat := range domain.Categories {
		members := byCategory[cat]
		if len(members) < 3 {
			continue
		}
		var total float64
		for _, tx := range members {
			total += math.Abs(tx.Amount)
		}
		mean := total / float64(len(members))
		if mean == 0 {
			continue
		}
		for _, tx := range members {
			ratio := math.Abs(tx.Amount) / mean
			if ratio <= 2 {
				continue
			}
			sev := domain.SeverityMedium
			if ratio > 5 {
				sev = domain.SeverityHigh
			}
			out = append(out, anomalyFor(tx, domain.AnomalyUnusuallyLarge, sev,
				fmt.Sprintf("%s is %.1fx the average %s charge of %s",
					format.Currency(math.Abs(tx.Amount)), ratio, cat, format.Currency(mean))))
		}
	}
	return out
}

// detectNewMerchants flags merchants seen exactly once with an absolute
// amount over $50.
func detectNewMerchants(txs []domain.CategorizedTransaction) []domain.Anomaly {
	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		counts[normalizeDescription(tx.Description)]++
	}

	var out []domain.Anomaly
	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		if counts[normalizeDescription(tx.Description)] != 1 {
			continue
		}
		abs := math.Abs(tx.Amount)
		if abs <= 50 {
			continue
		}
		sev := domain.SeverityLow
		if abs > 200 {
			sev = domain.SeverityMedium
		}
		out = append(out, anomalyFor(tx, domain.AnomalyNewMerchant, sev,
			fmt.Sprintf("First charge from this merchant: %s", format.Currency(abs))))
	}
	return out
}

// detectCategorySpikes flags the largest transaction of any month whose
// category total is more than twice that category's monthly mean.
func detectCategorySpikes(txs []domain.CategorizedTransaction) []domain.Anomaly {
	type monthGroup struct {
		total   float64
		largest domain.CategorizedTransaction
	}
	byCategory := make(map[domain.Category]map[string]*monthGroup)
	for _, tx := range txs {
		if tx.Category.IsCashFlow() || len(tx.Date) < 7 {
			continue
		}
		months, ok := byCategory[tx.Category]
		if !ok {
			months = make(map[string]*monthGroup)
			byCategory[tx.Category] = months
		}
		key := tx.Date[:7]
		g, ok := months[key]
		if !ok {
			g = &monthGroup{largest: tx}
			months[key] = g
		}
		g.total += math.Abs(tx.Amount)
		if math.Abs(tx.Amount) > math.Abs(g.largest.Amount) {
			g.largest = tx
		}
	}

	var out []domain.Anomaly
	for _, cat := range domain.Categories {
		months := byCategory[cat]
		if len(months) < 2 {
			continue
		}
		keys := make([]string, 0, len(months))
		var total float64
		for k, g := range months {
			keys = append(keys, k)
			total += g.total
		}
		sort.Strings(keys)
		mean := total / float64(len(months))
		if mean == 0 {
			continue
		}
		for _, k := range keys {
			g := months[k]
			ratio := g.total / mean
			if ratio <= 2 {
				continue
			}
			sev := domain.SeverityMedium
			if ratio > 3 {
				sev = domain.SeverityHigh
			}
			out = append(out, anomalyFor(g.largest, domain.AnomalyCategorySpike, sev,
				fmt.Sprintf("%s spending in %s was %s, %.1fx the monthly average",
					cat, k, format.Currency(g.total), ratio)))
		}
	}
	return out
}

// detectDuplicates flags the later of two charges within 3 days having
// the same normalized description and the same signed amount.
func detectDuplicates(txs []domain.CategorizedTransaction) []domain.Anomaly {
	sorted := make([]domain.CategorizedTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	seenPairs := make(map[string]bool)
	var out []domain.Anomaly
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			gap := daysBetween(sorted[i].Date, sorted[j].Date)
			if gap > 3 {
				break
			}
			if normalizeDescription(sorted[i].Description) != normalizeDescription(sorted[j].Description) {
				continue
			}
			if sorted[i].Amount != sorted[j].Amount {
				continue
			}
			pairKey := sorted[i].ID + "|" + sorted[j].ID
			if seenPairs[pairKey] {
				continue
			}
			seenPairs[pairKey] = true
			out = append(out, anomalyFor(sorted[j], domain.AnomalyDuplicate, domain.SeverityMedium,
				fmt.Sprintf("Possible duplicate of a %s charge on %s",
					format.Currency(math.Abs(sorted[j].Amount)), sorted[i].Date)))
		}
	}
	return out
}

// detectUnusualTiming flags weekend transactions more than 3x the mean
// weekend amount, given at least 3 weekend transactions.
func detectUnusualTiming(txs []domain.CategorizedTransaction) []domain.Anomaly {
	var weekend []domain.CategorizedTransaction
	for _, tx := range txs {
		if tx.Category.IsCashFlow() {
			continue
		}
		if isWeekend(tx.Date) {
			weekend = append(weekend, tx)
		}
	}
	if len(weekend) < 3 {
		return nil
	}

	var total float64
	for _, tx := range weekend {
		total += math.Abs(tx.Amount)
	}
	mean := total / float64(len(weekend))
	if mean == 0 {
		return nil
	}

	var out []domain.Anomaly
	for _, tx := range weekend {
		if math.Abs(tx.Amount) <= 3*mean {
			continue
		}
		out = append(out, anomalyFor(tx, domain.AnomalyUnusualTiming, domain.SeverityLow,
			fmt.Sprintf("Weekend charge of %s is well above your typical weekend spending",
				format.Currency(math.Abs(tx.Amount)))))
	}
	return out
}

func normalizeDescription(desc string) string {
	return strings.ToLower(strings.TrimSpace(desc))
}

func isWeekend(date string) bool {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func daysBetween(a, b string) int {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
