package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Classification of Profit Extracts
// ============================================================================
// Inspects a CSV export and generates a schema.Config.
//
// Classification pipeline per column:
//   1. Sample values → detect type (money-like numeric or string)
//   2. Header pattern → fiscal period? (2009, FY2009, Q1-2009, 2009-01, Jan-2009)
//   3. Period header + numeric → period; string → category; else skip
//   4. Order periods chronologically
//   5. Detect category hierarchies (State → Region)
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped, as categories
	Name           string   // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	var rows [][]string
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	totalRows := len(rows)
	if totalRows == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	columns := make([]columnAnalysis, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(header, i, rows, totalRows)
	}

	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.ToLower(col)] = true
	}

	config := &Config{
		Name:           opt.Name,
		Version:        "1.0",
		NoValueToken:   "-",
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	var periodCols []columnAnalysis
	for _, col := range columns {
		switch {
		case col.role == roleCategory:
			config.Categories = append(config.Categories, col.toDimension())
		case col.role == rolePeriod:
			periodCols = append(periodCols, col)
		case recoverSet[strings.ToLower(col.header)]:
			config.Categories = append(config.Categories, col.toDimension())
		default:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: col.header,
				Reason: col.skipReason,
			})
		}
	}

	sort.SliceStable(periodCols, func(i, j int) bool {
		return periodCols[i].periodOrder < periodCols[j].periodOrder
	})
	for _, col := range periodCols {
		config.Periods = append(config.Periods, PeriodMeta{
			Key:         col.header,
			DisplayName: col.header,
			Format:      col.periodFormat,
			Unit:        "currency",
		})
	}

	detectHierarchies(config.Categories, rows, columns)

	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleCategory columnRole = iota
	rolePeriod
	roleSkipped
)

type columnAnalysis struct {
	header     string
	index      int
	numeric    bool
	role       columnRole
	skipReason string

	uniqueCount int
	nullCount   int
	sampleVals  []string

	periodFormat    string
	periodOrder     int
	cardinalityHint string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{header: header, index: index}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if isNull(val) {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.uniqueCount = len(uniqueSet)

	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)
	col.numeric = mostlyMoney(values)
	col.periodFormat, col.periodOrder = detectPeriodHeader(header)
	col.classifyRole(totalRows)
	return col
}

// classifyRole determines category vs period vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	if col.numeric {
		if col.periodFormat != "" {
			col.role = rolePeriod
			return
		}
		col.role = roleSkipped
		col.skipReason = "Numeric column without a fiscal period header"
		return
	}

	if col.periodFormat != "" {
		col.role = roleSkipped
		col.skipReason = "Period header over non-numeric values"
		return
	}
	if col.uniqueCount == totalRows && totalRows > 10 {
		col.role = roleSkipped
		col.skipReason = "Unique per row, likely an identifier"
		return
	}
	if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
		col.role = roleSkipped
		col.skipReason = fmt.Sprintf("High cardinality (%d unique values), not useful for grouping", col.uniqueCount)
		return
	}
	col.role = roleCategory
}

func (col *columnAnalysis) toDimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.header,
		DisplayName:     toDisplayName(col.header),
		SampleValues:    col.sampleVals,
		CardinalityHint: col.cardinalityHint,
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

func isNull(s string) bool {
	switch s {
	case "", "-", "null", "NULL", "N/A", "n/a":
		return true
	}
	return false
}

// mostlyMoney requires 80%+ of non-null values to read as amounts.
func mostlyMoney(values []string) bool {
	count := 0
	for _, v := range values {
		if isMoney(v) {
			count++
		}
	}
	return count >= int(float64(len(values))*0.8) && count > 0
}

func isMoney(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// ============================================================================
// PERIOD HEADERS
// ============================================================================

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var periodPatterns = []struct {
	re     *regexp.Regexp
	format string
	order  func(m []string) int
}{
	{regexp.MustCompile(`^((?:19|20)\d{2})$`), "yyyy", func(m []string) int { return atoi(m[1]) * 100 }},
	{regexp.MustCompile(`(?i)^FY\s?((?:19|20)\d{2})$`), "FYyyyy", func(m []string) int { return atoi(m[1]) * 100 }},
	{regexp.MustCompile(`(?i)^Q([1-4])[- ]((?:19|20)\d{2})$`), "QN-yyyy", func(m []string) int { return atoi(m[2])*100 + atoi(m[1])*3 }},
	{regexp.MustCompile(`^((?:19|20)\d{2})-(0[1-9]|1[0-2])$`), "yyyy-MM", func(m []string) int { return atoi(m[1])*100 + atoi(m[2]) }},
	{regexp.MustCompile(`^([A-Z][a-z]{2})-((?:19|20)\d{2})$`), "MMM-yyyy", func(m []string) int {
		return atoi(m[2])*100 + months[strings.ToLower(m[1])]
	}},
}

// detectPeriodHeader returns the matched format and a chronological sort key.
func detectPeriodHeader(header string) (string, int) {
	h := strings.TrimSpace(header)
	for _, p := range periodPatterns {
		m := p.re.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		if p.format == "MMM-yyyy" && months[strings.ToLower(m[1])] == 0 {
			continue
		}
		return p.format, p.order(m)
	}
	return "", 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between categories.
// If every value of category B maps to exactly one value of category A,
// and A has fewer unique values, then A is parent of B.
// When multiple valid parents exist, picks the closest (highest cardinality).
func detectHierarchies(categories []DimensionMeta, rows [][]string, columns []columnAnalysis) {
	indices := make(map[string]int)
	uniques := make(map[string]int)
	for _, col := range columns {
		indices[col.header] = col.index
		uniques[col.header] = col.uniqueCount
	}

	for i := range categories {
		childKey := categories[i].Key
		childIdx := indices[childKey]

		bestParent := ""
		bestParentUniques := 0

		for j := range categories {
			if i == j {
				continue
			}
			parentKey := categories[j].Key
			parentIdx := indices[parentKey]

			if uniques[parentKey] >= uniques[childKey] {
				continue
			}

			childToParent := make(map[string]string)
			isHierarchy := true
			for _, row := range rows {
				if childIdx >= len(row) || parentIdx >= len(row) {
					continue
				}
				child := strings.TrimSpace(row[childIdx])
				parent := strings.TrimSpace(row[parentIdx])
				if child == "" || parent == "" {
					continue
				}
				if existing, ok := childToParent[child]; ok {
					if existing != parent {
						isHierarchy = false
						break
					}
				} else {
					childToParent[child] = parent
				}
			}

			if isHierarchy && len(childToParent) > 1 && uniques[parentKey] > bestParentUniques {
				bestParent = parentKey
				bestParentUniques = uniques[parentKey]
			}
		}

		categories[i].Parent = bestParent
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "business_unit" → "Business Unit", "Product Group" → "Product Group"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples values, sorted for deterministic output.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
