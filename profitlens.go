// Package profitlens ranks the categories of a profit dataset by
// period-over-period change and reports the best and worst performers.
//
// Usage:
//
//	import "github.com/spektr-org/profitlens/engine"
//
//	result, err := engine.RankRecords(records, "Region",
//	    engine.PeriodPair{Prior: "2008", Current: "2009"},
//	    engine.WithRounding(engine.RoundHalfEven),
//	)
//
// The engine takes records (generic dimension/measure maps) and returns the
// best category, its rounded profit figures, and the worst category.
//
// Ingestion lives in helpers and schema, orchestration of a state report in
// report, and the voice skill around it in skill. The engine never calls any
// external service; all computation is local.
package profitlens
