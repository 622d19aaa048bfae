package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a ranking Result
// ============================================================================
// Rows follow the ranking (delta desc). Sums are shown unrounded;
// the summary carries the best/worst callout.
// ============================================================================

// BuildRankingTable renders a Result as a table with one row per category.
func BuildRankingTable(result *Result, category string, periods PeriodPair) *TableData {
	title := fmt.Sprintf("Profit change by %s (%s)", category, periods)

	if result == nil || len(result.Ranking) == 0 {
		return &TableData{
			Title:   title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	columns := []Column{
		{Key: "rank", Label: "#", Type: "number", Align: "right"},
		{Key: "category", Label: LabelForDimension(category), Type: "text", Align: "left"},
		{Key: "prior", Label: periods.Prior, Type: "number", Align: "right"},
		{Key: "current", Label: periods.Current, Type: "number", Align: "right"},
		{Key: "delta", Label: "Change", Type: "percent", Align: "right"},
	}

	sums := make(map[string]CategoryAggregate, len(result.Aggregates))
	for _, a := range result.Aggregates {
		sums[a.Category] = a
	}

	rows := make([][]string, 0, len(result.Ranking))
	for i, entry := range result.Ranking {
		a := sums[entry.Category]
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			entry.Category,
			fmt.Sprintf("%.2f", a.Prior),
			fmt.Sprintf("%.2f", a.Current),
			FormatPercent(entry.Delta),
		})
	}

	best, worst := result.Best(), result.Worst()
	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("%d categories", len(result.Ranking)),
			Values: map[string]string{
				"best":         best.Category,
				"best_change":  FormatPercent(best.Delta),
				"best_prior":   FormatCurrency(result.PrevProfit, "$"),
				"best_current": FormatCurrency(result.CurrentProfit, "$"),
				"worst":        worst.Category,
				"worst_change": FormatPercent(worst.Delta),
			},
		},
	}
}
