// Package categorize assigns a spending category to every raw transaction
// by consulting an external classifier in concurrent batches. The gateway
// never fails: a batch that errors degrades to the Other category with
// zero confidence, and malformed classifier entries are discarded
// individually rather than failing their batch.
package categorize

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/domain"
)

// Request-size bounds imposed by the classifier collaborator.
const (
	// MaxBatchItems is the largest batch the collaborator accepts.
	MaxBatchItems = 200
	// MaxDescriptionLen caps each submitted description.
	MaxDescriptionLen = 500
	// DefaultBatchSize is used when the caller does not configure one.
	DefaultBatchSize = 50
)

// Item is one transaction submitted for classification.
type Item struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Result is one classification entry. Index references the request
// position; the response is not required to be complete or ordered.
type Result struct {
	Index      int     `json:"index"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classifier is the external classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, items []Item) ([]Result, error)
}

// Gateway batches transactions to a Classifier and reassembles the
// results in input order.
type Gateway struct {
	classifier Classifier
	batchSize  int
	log        zerolog.Logger
}

// NewGateway creates a gateway with the given batch size. Sizes outside
// (0, MaxBatchItems] are coerced to the default.
func NewGateway(classifier Classifier, batchSize int, log zerolog.Logger) *Gateway {
	if batchSize <= 0 || batchSize > MaxBatchItems {
		batchSize = DefaultBatchSize
	}
	return &Gateway{classifier: classifier, batchSize: batchSize, log: log}
}

type assignment struct {
	category   domain.Category
	confidence float64
}

// Categorize returns one categorized transaction per input, in input
// order, with positional session-stable ids. The boolean reports whether
// any batch degraded to the fallback category so the caller can surface
// a non-fatal warning.
func (g *Gateway) Categorize(ctx context.Context, raw []domain.RawTransaction) ([]domain.CategorizedTransaction, bool) {
	assignments := make([]assignment, len(raw))
	for i := range assignments {
		assignments[i] = assignment{category: domain.CategoryOther, confidence: 0}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		degraded bool
	)

	for start := 0; start < len(raw); start += g.batchSize {
		end := start + g.batchSize
		if end > len(raw) {
			end = len(raw)
		}

		wg.Add(1)
		go func(base int, batch []domain.RawTransaction) {
			defer wg.Done()

			items := make([]Item, len(batch))
			for i, tx := range batch {
				desc := tx.Description
				if len(desc) > MaxDescriptionLen {
					desc = desc[:MaxDescriptionLen]
				}
				items[i] = Item{Description: desc, Amount: tx.Amount}
			}

			results, err := g.classifier.Classify(ctx, items)
			if err != nil {
				g.log.Warn().
					Err(err).
					Int("batch_start", base).
					Int("batch_size", len(batch)).
					Msg("Classifier batch failed, falling back to Other")
				mu.Lock()
				degraded = true
				mu.Unlock()
				return
			}

			// Reassemble by declared index; each batch writes only its own
			// disjoint region, so no lock is needed for the slice itself.
			for _, r := range results {
				if r.Index < 0 || r.Index >= len(batch) {
					continue
				}
				assignments[base+r.Index] = assignment{
					category:   domain.ParseCategory(r.Category),
					confidence: clamp01(r.Confidence),
				}
			}
		}(start, raw[start:end])
	}
	wg.Wait()

	txs := make([]domain.CategorizedTransaction, len(raw))
	for i, r := range raw {
		txs[i] = domain.CategorizedTransaction{
			RawTransaction: r,
			ID:             fmt.Sprintf("tx-%d", i),
			Category:       assignments[i].category,
			Confidence:     assignments[i].confidence,
		}
	}
	return txs, degraded
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
