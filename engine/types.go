package engine

import (
	"fmt"
)

// ============================================================================
// ENGINE TYPES — Profit-Change Aggregation
// ============================================================================
// Record shape is fixed at the ingestion boundary (helpers package):
// category fields are Dimensions, period fields are Measures.
//
// Dependency: shopspring/decimal for rounding only.
// ============================================================================

// ============================================================================
// RECORD — One row of source data
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
//	Record{
//	    Dimensions: {"State": "Texas", "Region": "Central"},
//	    Measures:   {"2008": 1200.50, "2009": 980.00},
//	}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// PERIOD PAIR — Which two measures are compared
// ============================================================================

// PeriodPair names the two periods being compared. Order matters:
// the delta is always Current relative to Prior.
type PeriodPair struct {
	Prior   string `json:"prior" yaml:"prior"`
	Current string `json:"current" yaml:"current"`
}

// Validate rejects empty or identical period identifiers.
func (p PeriodPair) Validate() error {
	if p.Prior == "" || p.Current == "" {
		return fmt.Errorf("%w: prior=%q current=%q", ErrInvalidPeriods, p.Prior, p.Current)
	}
	if p.Prior == p.Current {
		return fmt.Errorf("%w: prior and current are both %q", ErrInvalidPeriods, p.Prior)
	}
	return nil
}

func (p PeriodPair) String() string {
	return p.Prior + "→" + p.Current
}

// ============================================================================
// AGGREGATES AND RANKING
// ============================================================================

// CategoryAggregate holds per-category sums for both periods.
type CategoryAggregate struct {
	Category string  `json:"category"`
	Prior    float64 `json:"prior"`
	Current  float64 `json:"current"`
}

// RankingEntry is one category with its normalized period-over-period change.
type RankingEntry struct {
	Category string  `json:"category"`
	Delta    float64 `json:"delta"`
}

// ============================================================================
// RESULT — Best/worst performer for one (dataset, category) pair
// ============================================================================

// Result is the outcome of a single Rank call.
// PrevProfit and CurrentProfit are the best category's sums rounded to thousands.
type Result struct {
	Category          string  `json:"category"`
	ProfitChange      float64 `json:"profit_change"`
	PrevProfit        float64 `json:"prev_profit"`
	CurrentProfit     float64 `json:"current_profit"`
	WorstCategory     string  `json:"worst_category"`
	WorstProfitChange float64 `json:"worst_profit_change"`

	// Full ranking (delta desc) and the sums it was computed from (first-seen order).
	Ranking    []RankingEntry      `json:"ranking"`
	Aggregates []CategoryAggregate `json:"aggregates"`
}

// Best returns the top ranking entry.
func (r *Result) Best() RankingEntry {
	return RankingEntry{Category: r.Category, Delta: r.ProfitChange}
}

// Worst returns the bottom ranking entry.
func (r *Result) Worst() RankingEntry {
	return RankingEntry{Category: r.WorstCategory, Delta: r.WorstProfitChange}
}

// ============================================================================
// FILTERS
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides the best/worst callout for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
