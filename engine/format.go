package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// RoundThousands rounds v to the nearest multiple of 1000.
// Rounding happens on the decimal value, so 2500 is exactly a tie.
func RoundThousands(v float64, mode Rounding) float64 {
	d := decimal.NewFromFloat(v)
	switch mode {
	case RoundHalfAwayFromZero:
		d = d.Round(-3)
	default:
		d = d.RoundBank(-3)
	}
	if d.IsZero() {
		return 0 // no "-0" in output
	}
	return d.InexactFloat64()
}

// FormatCurrency formats an amount with currency prefix and comma separators.
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	intPart := cents / 100
	decPart := cents % 100

	intStr := groupThousands(fmt.Sprintf("%d", intPart))

	result := fmt.Sprintf("%s%s.%02d", currency, intStr, decPart)
	if negative {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent renders a delta ratio as a signed percentage: 0.5 → "+50.0%".
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%+.1f%%", ratio*100)
}

// LabelForDimension returns a capitalized label for a dimension.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}
