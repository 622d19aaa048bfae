package helpers

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AMOUNT NORMALIZATION — Spreadsheet currency text → float64
// ============================================================================
//   "-"            → 0     (accounting "nil")
//   "1-2-3"        → 0     (more than one dash is a placeholder, not a number)
//   "$1,234.50"    → 1234.5
//   "(1,234.50)"   → -1234.5
//   "Texas"        → not numeric
// ============================================================================

// NormalizeAmount converts a currency cell into a number.
// The second return is false when the text is not numeric.
func NormalizeAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "-" || strings.Count(s, "-") > 1 {
		return 0, true
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}

	f, _ := d.Float64()
	return f, true
}

// normalizeCell applies the dataset's "no value" token before NormalizeAmount.
func normalizeCell(s, emptyToken string) (float64, bool) {
	if emptyToken != "" && strings.TrimSpace(s) == emptyToken {
		return 0, true
	}
	return NormalizeAmount(s)
}
