package engine

import "fmt"

// ============================================================================
// ENGINE OPTIONS — Functional options for Rank()
// ============================================================================

// Rounding selects how display figures are rounded to the nearest thousand.
type Rounding int

const (
	// RoundHalfEven sends x500 to the even thousand (2500 → 2000, 3500 → 4000).
	RoundHalfEven Rounding = iota
	// RoundHalfAwayFromZero sends x500 away from zero (2500 → 3000, -2500 → -3000).
	RoundHalfAwayFromZero
)

func (r Rounding) String() string {
	switch r {
	case RoundHalfAwayFromZero:
		return "half_away_from_zero"
	default:
		return "half_even"
	}
}

// ParseRounding maps a config string to a Rounding. Empty means half-even.
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "half_even":
		return RoundHalfEven, nil
	case "half_away_from_zero", "half_up":
		return RoundHalfAwayFromZero, nil
	default:
		return RoundHalfEven, fmt.Errorf("%w: %q", ErrUnknownRounding, s)
	}
}

// Option configures ranker behavior via functional options pattern.
type Option func(*config)

type config struct {
	Rounding Rounding
}

// WithRounding sets the rounding mode for PrevProfit/CurrentProfit.
func WithRounding(r Rounding) Option {
	return func(c *config) {
		c.Rounding = r
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Rounding: RoundHalfEven,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
