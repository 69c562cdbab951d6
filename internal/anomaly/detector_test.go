package anomaly

import (
	"fmt"
	"testing"

	"github.com/spendlens/spendlens/internal/domain"
)

func tx(id, date, desc string, amount float64, cat domain.Category) domain.CategorizedTransaction {
	return domain.CategorizedTransaction{
		RawTransaction: domain.RawTransaction{Date: date, Description: desc, Amount: amount},
		ID:             id,
		Category:       cat,
	}
}

func assertNoSharedTransaction(t *testing.T, anomalies []domain.Anomaly) {
	t.Helper()
	seen := make(map[string]bool)
	for _, a := range anomalies {
		if seen[a.TransactionID] {
			t.Errorf("transaction %s flagged more than once", a.TransactionID)
		}
		seen[a.TransactionID] = true
	}
}

func TestDetectUnusuallyLarge(t *testing.T) {
	// Amounts {10, 10, 10, 100}: mean 32.5, the 100 charge is 3.08x.
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "SHOP A", -10, domain.CategoryShopping),
		tx("tx-1", "2024-01-10", "SHOP B", -10, domain.CategoryShopping),
		tx("tx-2", "2024-01-15", "SHOP C", -10, domain.CategoryShopping),
		tx("tx-3", "2024-01-20", "SHOP D", -100, domain.CategoryShopping),
	}

	got := Detect(txs)

	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	a := got[0]
	if a.Type != domain.AnomalyUnusuallyLarge {
		t.Errorf("type = %s, want unusually_large", a.Type)
	}
	if a.Severity != domain.SeverityMedium {
		t.Errorf("severity = %s, want medium at 3.08x", a.Severity)
	}
	if a.TransactionID != "tx-3" {
		t.Errorf("flagged %s, want tx-3", a.TransactionID)
	}
	if a.ID != "anomaly-0" {
		t.Errorf("id = %s, want anomaly-0", a.ID)
	}
}

func TestDetectUnusuallyLargeHigh(t *testing.T) {
	// Mean of {10, 10, 10, 500} is 132.5; 500 is 3.77x, still medium.
	// Push to {5, 5, 5, 500}: mean 128.75, 3.88x. The >5x band needs the
	// outlier to dominate less: {10, 10, 10, 10, 10, 600} mean 108.33,
	// ratio 5.54x.
	txs := make([]domain.CategorizedTransaction, 0, 6)
	for i := 0; i < 5; i++ {
		txs = append(txs, tx(fmt.Sprintf("tx-%d", i), "2024-01-05", fmt.Sprintf("SHOP %d", i), -10, domain.CategoryShopping))
	}
	txs = append(txs, tx("tx-5", "2024-01-20", "BIG TICKET STORE", -600, domain.CategoryShopping))

	got := Detect(txs)

	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	if got[0].Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want high above 5x", got[0].Severity)
	}
	if got[0].Type != domain.AnomalyUnusuallyLarge {
		t.Errorf("type = %s", got[0].Type)
	}
}

func TestDetectNewMerchant(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "CORNER CAFE", -8, domain.CategoryDining),
		tx("tx-1", "2024-01-12", "CORNER CAFE", -9, domain.CategoryDining),
		tx("tx-2", "2024-01-15", "FURNITURE OUTLET", -120, domain.CategoryShopping),
		tx("tx-3", "2024-01-20", "JEWELRY STORE", -350, domain.CategoryShopping),
		tx("tx-4", "2024-01-22", "SNACK STAND", -4, domain.CategoryDining),
	}

	got := Detect(txs)

	byID := make(map[string]domain.Anomaly)
	for _, a := range got {
		byID[a.TransactionID] = a
	}
	if len(got) != 2 {
		t.Fatalf("got %d anomalies, want 2: %+v", len(got), got)
	}
	if a, ok := byID["tx-2"]; !ok || a.Type != domain.AnomalyNewMerchant || a.Severity != domain.SeverityLow {
		t.Errorf("tx-2 anomaly = %+v, want new_merchant/low", a)
	}
	if a, ok := byID["tx-3"]; !ok || a.Type != domain.AnomalyNewMerchant || a.Severity != domain.SeverityMedium {
		t.Errorf("tx-3 anomaly = %+v, want new_merchant/medium above $200", a)
	}
	// Repeated merchants and small one-off charges stay unflagged.
	if _, ok := byID["tx-0"]; ok {
		t.Error("repeated merchant was flagged")
	}
	if _, ok := byID["tx-4"]; ok {
		t.Error("small one-off charge was flagged")
	}
}

func TestDetectCategorySpike(t *testing.T) {
	// Monthly Groceries totals 100, 100, 450: March is 2.08x the mean.
	// Individual charges stay below the large-transaction threshold.
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "MARKET", -50, domain.CategoryGroceries),
		tx("tx-1", "2024-01-19", "MARKET", -50, domain.CategoryGroceries),
		tx("tx-2", "2024-02-05", "MARKET", -50, domain.CategoryGroceries),
		tx("tx-3", "2024-02-19", "MARKET", -50, domain.CategoryGroceries),
		tx("tx-4", "2024-03-02", "MARKET", -150, domain.CategoryGroceries),
		tx("tx-5", "2024-03-12", "MARKET", -150, domain.CategoryGroceries),
		tx("tx-6", "2024-03-22", "MARKET", -150, domain.CategoryGroceries),
	}

	got := Detect(txs)

	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Type != domain.AnomalyCategorySpike {
		t.Errorf("type = %s, want category_spike", a.Type)
	}
	if a.Severity != domain.SeverityMedium {
		t.Errorf("severity = %s, want medium at 2.08x", a.Severity)
	}
	if a.TransactionID != "tx-4" {
		t.Errorf("flagged %s, want the largest March transaction tx-4", a.TransactionID)
	}
}

func TestDetectDuplicates(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
		tx("tx-1", "2024-01-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
		tx("tx-2", "2024-01-12", "COFFEE SHOP", -4.50, domain.CategoryDining),
	}

	got := Detect(txs)

	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Type != domain.AnomalyDuplicate || a.Severity != domain.SeverityMedium {
		t.Errorf("anomaly = %s/%s, want duplicate/medium", a.Type, a.Severity)
	}
	if a.TransactionID != "tx-1" {
		t.Errorf("flagged %s, want the later transaction tx-1", a.TransactionID)
	}
}

func TestDetectDuplicatesSameDayTriple(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "VENDING", -2, domain.CategoryDining),
		tx("tx-1", "2024-01-05", "VENDING", -2, domain.CategoryDining),
		tx("tx-2", "2024-01-05", "VENDING", -2, domain.CategoryDining),
	}

	got := Detect(txs)

	// tx-1 and tx-2 each flagged once; tx-0 never.
	if len(got) != 2 {
		t.Fatalf("got %d anomalies, want 2: %+v", len(got), got)
	}
	assertNoSharedTransaction(t, got)
	for _, a := range got {
		if a.TransactionID == "tx-0" {
			t.Error("earliest transaction of the triple was flagged")
		}
	}
}

func TestDetectDuplicatesRespectsGap(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
		tx("tx-1", "2024-01-10", "COFFEE SHOP", -4.50, domain.CategoryDining),
	}
	if got := Detect(txs); len(got) != 0 {
		t.Errorf("got %d anomalies, want 0 for charges 5 days apart", len(got))
	}
}

func TestDetectDuplicatesKeyIsTrimLowercase(t *testing.T) {
	// Description keys fold case and outer padding only; internal
	// spacing stays significant.
	same := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "  Coffee Shop  ", -4.50, domain.CategoryDining),
		tx("tx-1", "2024-01-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
	}
	if got := Detect(same); len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1 for case/padding variants", len(got))
	}

	different := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "COFFEE  SHOP", -4.50, domain.CategoryDining),
		tx("tx-1", "2024-01-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
	}
	if got := Detect(different); len(got) != 0 {
		t.Errorf("got %d anomalies, want 0 when internal spacing differs", len(got))
	}
}

func TestDetectUnusualTiming(t *testing.T) {
	// 2024-01-06/07/13/14 are weekend days, 2024-01-09 is a Tuesday.
	// Weekend mean is (10+10+10+10+300)/5 = 68; 300 exceeds 3x.
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-06", "BAR A", -10, domain.CategoryDining),
		tx("tx-1", "2024-01-07", "BAR B", -10, domain.CategoryEntertainment),
		tx("tx-2", "2024-01-13", "BAR C", -10, domain.CategoryHealth),
		tx("tx-3", "2024-01-14", "BAR D", -10, domain.CategoryTransport),
		tx("tx-4", "2024-01-13", "NIGHTCLUB", -300, domain.CategoryUtilities),
		tx("tx-5", "2024-01-09", "NIGHTCLUB", -20, domain.CategoryUtilities),
	}

	got := Detect(txs)

	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Type != domain.AnomalyUnusualTiming || a.Severity != domain.SeverityLow {
		t.Errorf("anomaly = %s/%s, want unusual_timing/low", a.Type, a.Severity)
	}
	if a.TransactionID != "tx-4" {
		t.Errorf("flagged %s, want tx-4", a.TransactionID)
	}
}

func TestDetectMergeKeepsHighestSeverity(t *testing.T) {
	// tx-5 is both a new merchant (medium, above $200) and unusually
	// large within Shopping (high, above 5x mean). One anomaly must
	// survive, at high severity.
	txs := []domain.CategorizedTransaction{
		tx("tx-0", "2024-01-05", "SHOP A", -10, domain.CategoryShopping),
		tx("tx-1", "2024-01-06", "SHOP A", -10, domain.CategoryShopping),
		tx("tx-2", "2024-01-08", "SHOP B", -10, domain.CategoryShopping),
		tx("tx-3", "2024-01-12", "SHOP B", -10, domain.CategoryShopping),
		tx("tx-4", "2024-01-15", "SHOP C", -10, domain.CategoryShopping),
		tx("tx-5", "2024-01-20", "LUXURY BOUTIQUE", -700, domain.CategoryShopping),
	}

	got := Detect(txs)

	assertNoSharedTransaction(t, got)
	var found *domain.Anomaly
	for i := range got {
		if got[i].TransactionID == "tx-5" {
			found = &got[i]
		}
	}
	if found == nil {
		t.Fatal("tx-5 not flagged")
	}
	if found.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want high to win the merge", found.Severity)
	}
	if found.Type != domain.AnomalyUnusuallyLarge {
		t.Errorf("type = %s, want the high-severity candidate's type", found.Type)
	}
}

func TestDetectOutputOrderAndIDs(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		// High: 600 vs five 10s in Shopping (5.54x).
		tx("tx-0", "2024-01-05", "SHOP A", -10, domain.CategoryShopping),
		tx("tx-1", "2024-01-06", "SHOP B", -10, domain.CategoryShopping),
		tx("tx-2", "2024-01-08", "SHOP C", -10, domain.CategoryShopping),
		tx("tx-3", "2024-01-12", "SHOP D", -10, domain.CategoryShopping),
		tx("tx-4", "2024-01-15", "SHOP E", -10, domain.CategoryShopping),
		tx("tx-5", "2024-01-20", "MEGA STORE", -600, domain.CategoryShopping),
		// Medium: duplicate pair.
		tx("tx-6", "2024-02-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
		tx("tx-7", "2024-02-05", "COFFEE SHOP", -4.50, domain.CategoryDining),
		// Low: one-off merchant slightly above $50.
		tx("tx-8", "2024-02-10", "HARDWARE STORE", -60, domain.CategoryHousing),
	}

	got := Detect(txs)

	assertNoSharedTransaction(t, got)
	if len(got) != 3 {
		t.Fatalf("got %d anomalies, want 3: %+v", len(got), got)
	}
	for i, a := range got {
		if a.ID != fmt.Sprintf("anomaly-%d", i) {
			t.Errorf("anomaly %d id = %s", i, a.ID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Severity.Rank() > got[i-1].Severity.Rank() {
			t.Errorf("severity order violated at %d: %s after %s", i, got[i].Severity, got[i-1].Severity)
		}
	}
	if got[0].TransactionID != "tx-5" {
		t.Errorf("first anomaly = %s, want the high-severity tx-5", got[0].TransactionID)
	}
}
