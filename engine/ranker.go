package engine

import (
	"fmt"
)

// ============================================================================
// RANKER — Best/worst period-over-period profit change per category
// ============================================================================
// Entry point: Rank(view, category, periods, opts...)
//
// Pipeline:
//   1. Validate the period pair
//   2. Group by category, sum prior/current (input order)
//   3. Delta per category, stable sort desc
//   4. Extract best (first) and worst (last)
//   5. Round the best category's sums to thousands
//
// Pure function of its inputs. No I/O, no shared state, safe for concurrent use.
// ============================================================================

// Rank groups the view by category and reports the categories with the best
// and worst change from periods.Prior to periods.Current.
func Rank(view RecordView, category string, periods PeriodPair, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if err := periods.Validate(); err != nil {
		return nil, err
	}
	if category == "" {
		return nil, fmt.Errorf("%w: empty category field", ErrMissingField)
	}

	aggs, err := Aggregate(view, category, periods)
	if err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return nil, ErrEmptyInput
	}

	ranking := RankAggregates(aggs)
	best := ranking[0]
	worst := ranking[len(ranking)-1]
	top := findAggregate(aggs, best.Category)

	return &Result{
		Category:          best.Category,
		ProfitChange:      best.Delta,
		PrevProfit:        RoundThousands(top.Prior, cfg.Rounding),
		CurrentProfit:     RoundThousands(top.Current, cfg.Rounding),
		WorstCategory:     worst.Category,
		WorstProfitChange: worst.Delta,
		Ranking:           ranking,
		Aggregates:        aggs,
	}, nil
}

// RankRecords is Rank over a plain record slice.
func RankRecords(records []Record, category string, periods PeriodPair, opts ...Option) (*Result, error) {
	return Rank(NewSliceView(records), category, periods, opts...)
}
