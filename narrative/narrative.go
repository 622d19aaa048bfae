package narrative

import (
	"context"

	"github.com/spektr-org/profitlens/report"
)

// ============================================================================
// NARRATIVE — Calcs → prose for the spoken summary and the email
// ============================================================================
// Generator is the ONLY boundary that may call an external text service.
// It receives ranked figures, never raw rows.
//
// Implementations:
//   - Wordsmith: remote template service (wordsmith.go)
//   - Local:     placeholder template rendered in-process (local.go)
//   - Fallback:  primary with a secondary on error (fallback.go)
// ============================================================================

// Generator turns report figures into a narrative.
type Generator interface {
	Generate(ctx context.Context, calcs *report.Calcs) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, calcs *report.Calcs) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, calcs *report.Calcs) (string, error) {
	return f(ctx, calcs)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
