package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/report"
)

// ============================================================================
// LOCAL — In-process template rendering
// ============================================================================
// Placeholders are the Calcs JSON keys in braces: {state_top_profit_change}.
// *_value keys render as signed percentages, *_current and *_prev as currency.
// ============================================================================

// DefaultTemplate reads like the remote template's output.
const DefaultTemplate = "{state_top_profit_change} profit changed {state_top_profit_change_value} from last {timeframe}, " +
	"moving from {state_top_profit_change_profit_prev} to {state_top_profit_change_profit_current}. " +
	"{state_top_profit_change_top_bu} led the business units at {state_top_profit_change_top_bu_value} " +
	"while {state_top_profit_change_bot_bu} trailed at {state_top_profit_change_bot_bu_value}. " +
	"Among product groups {state_top_profit_change_top_prod} led at {state_top_profit_change_top_prod_value} " +
	"and {state_top_profit_change_bot_prod} trailed at {state_top_profit_change_bot_prod_value}. " +
	"Nationally the {region_top_profit_change} region grew the most at {region_top_profit_change_value}, " +
	"{bu_top_profit_change} was the strongest business unit at {bu_top_profit_change_value} " +
	"and {prod_top_profit_change} the strongest product group at {prod_top_profit_change_value}."

// Local implements Generator without network calls.
type Local struct {
	Template string
	Currency string
}

// NewLocal creates a Local generator. Empty template uses DefaultTemplate.
func NewLocal(template string) *Local {
	if template == "" {
		template = DefaultTemplate
	}
	return &Local{Template: template, Currency: "$"}
}

// Generate implements Generator.
func (l *Local) Generate(ctx context.Context, calcs *report.Calcs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	replacements, err := l.replacements(calcs)
	if err != nil {
		return "", err
	}
	return ResolvePlaceholders(l.Template, replacements), nil
}

func (l *Local) replacements(calcs *report.Calcs) (map[string]string, error) {
	data, err := json.Marshal(calcs)
	if err != nil {
		return nil, fmt.Errorf("encode calcs: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode calcs: %w", err)
	}

	replacements := make(map[string]string, len(fields))
	for key, v := range fields {
		placeholder := "{" + key + "}"
		switch v := v.(type) {
		case string:
			replacements[placeholder] = v
		case float64:
			switch {
			case strings.HasSuffix(key, "_value"):
				replacements[placeholder] = engine.FormatPercent(v)
			case strings.HasSuffix(key, "_current"), strings.HasSuffix(key, "_prev"):
				replacements[placeholder] = engine.FormatCurrency(v, l.Currency)
			default:
				replacements[placeholder] = engine.FormatInt(int(v))
			}
		}
	}
	return replacements, nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes values into template and strips any placeholder left over.
func ResolvePlaceholders(template string, replacements map[string]string) string {
	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	if !placeholderRegex.MatchString(text) {
		return text
	}
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
