package engine

import (
	"sort"
)

// ============================================================================
// AGGREGATORS — Grouping, Summation, and Ranking via RecordView
// ============================================================================
// Records are read once, in input order. Category order is first-seen order,
// and the ranking sort is stable, so equal deltas keep that order.
// ============================================================================

// Aggregate groups a view by category and sums both periods per label.
// Labels come back in first-occurrence order. Every label gets an entry,
// even when both sums are zero.
func Aggregate(view RecordView, category string, periods PeriodPair) ([]CategoryAggregate, error) {
	if view.Len() == 0 {
		return nil, ErrEmptyInput
	}

	index := make(map[string]int)
	aggs := make([]CategoryAggregate, 0)

	for i := 0; i < view.Len(); i++ {
		label, ok := view.Dimension(i, category)
		if !ok {
			return nil, &MissingFieldError{Index: i, Field: category}
		}
		prior, ok := view.Measure(i, periods.Prior)
		if !ok {
			return nil, &MissingFieldError{Index: i, Field: periods.Prior}
		}
		current, ok := view.Measure(i, periods.Current)
		if !ok {
			return nil, &MissingFieldError{Index: i, Field: periods.Current}
		}

		pos, exists := index[label]
		if !exists {
			pos = len(aggs)
			index[label] = pos
			aggs = append(aggs, CategoryAggregate{Category: label})
		}
		aggs[pos].Prior += prior
		aggs[pos].Current += current
	}

	return aggs, nil
}

// RankAggregates computes the delta of every aggregate and sorts by delta descending.
// The sort is stable: ties keep the aggregates' order.
func RankAggregates(aggs []CategoryAggregate) []RankingEntry {
	ranking := make([]RankingEntry, len(aggs))
	for i, a := range aggs {
		ranking[i] = RankingEntry{
			Category: a.Category,
			Delta:    Delta(a.Current, a.Prior),
		}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Delta > ranking[j].Delta
	})
	return ranking
}

func findAggregate(aggs []CategoryAggregate, category string) CategoryAggregate {
	for _, a := range aggs {
		if a.Category == category {
			return a
		}
	}
	return CategoryAggregate{Category: category}
}
