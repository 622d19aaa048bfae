package narrative

import (
	"context"
	"log/slog"

	"github.com/spektr-org/profitlens/report"
	"github.com/spektr-org/profitlens/telemetry"
)

// Fallback tries Primary and uses Secondary when it fails.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	log       *slog.Logger
}

// NewFallback creates a Fallback generator.
func NewFallback(primary, secondary Generator) *Fallback {
	return &Fallback{
		Primary:   primary,
		Secondary: secondary,
		log:       telemetry.Logger("profitlens/narrative"),
	}
}

// Generate implements Generator. The secondary's error is returned if both fail.
func (f *Fallback) Generate(ctx context.Context, calcs *report.Calcs) (string, error) {
	text, err := f.Primary.Generate(ctx, calcs)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	f.log.WarnContext(ctx, "primary narrative failed, falling back", slog.Any("error", err))
	return f.Secondary.Generate(ctx, calcs)
}
