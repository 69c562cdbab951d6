// Package pipeline runs one uploaded statement through parsing,
// normalization, categorization and analytics, producing the dashboard
// for that upload. Limits and document-level failures live here; the
// packages below it stay policy-free.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/categorize"
)

// Analyzer wires the pipeline steps around a categorization gateway.
type Analyzer struct {
	gateway *categorize.Gateway
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer using the given gateway.
func NewAnalyzer(gateway *categorize.Gateway, log zerolog.Logger) *Analyzer {
	return &Analyzer{gateway: gateway, log: log}
}

// Analyze processes one uploaded file and returns its dashboard. Errors
// are document-level conditions from the taxonomy in errors.go or the
// statement package; row-level noise never surfaces here.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte) (*Dashboard, error) {
	state := &PipelineState{Filename: filename, Data: data}
	steps := []PipelineStep{
		&ParseFileStep{},
		&NormalizeStep{},
		&CategorizeStep{Gateway: a.gateway},
		&AnalyzeStep{},
	}

	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			a.log.Error().
				Err(err).
				Str("filename", filename).
				Str("step", stepName(step)).
				Msg("Pipeline step failed")
			return nil, err
		}
	}

	a.log.Info().
		Str("filename", filename).
		Int("transactions", len(state.Transactions)).
		Int("anomalies", len(state.Dashboard.Anomalies)).
		Bool("degraded", state.Degraded).
		Msg("Statement analyzed")
	return state.Dashboard, nil
}

func stepName(step PipelineStep) string {
	switch step.(type) {
	case *ParseFileStep:
		return "parse"
	case *NormalizeStep:
		return "normalize"
	case *CategorizeStep:
		return "categorize"
	case *AnalyzeStep:
		return "analyze"
	default:
		return "unknown"
	}
}
