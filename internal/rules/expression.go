package rules

import (
	"strconv"
	"strings"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
)

const orOperator = " || "

// Phrases is the localized vocabulary used by TranslateExpression. Clause
// phrases receive the formatted "thresholdMax" or "thresholdMin" and the
// outer template receives the joined clauses as "text".
type Phrases interface {
	Phrase(key string, vars map[string]string) string
}

// Phrase keys.
const (
	KeyTrendUp                = "ADMIN_RULE_TRANS_TRENDUP"
	KeyTrendUpAndThresholdMax = "ADMIN_RULE_TRANS_TRENDUP_AND_THRESHOLDMAX"
	KeyThresholdMax           = "ADMIN_RULE_TRANS_TRESHOLDMAX"
	KeyTrendDown              = "ADMIN_RULE_TRANS_TRENDDOWN"
	KeyTrendDownAndThreshold  = "ADMIN_RULE_TRANS_TRENDDOWN_AND_THRESHOLDMIN"
	KeyThresholdMin           = "ADMIN_RULE_TRANS_TRESHOLDMIN"
	KeyOr                     = "ADMIN_RULE_TRANS_OR"
	KeyTemplate               = "ADMIN_RULE_TRANS_TPL"
)

// FormatThreshold rounds v to 3 decimals and drops trailing zeros.
func FormatThreshold(v float64) string {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if rounded == 0 {
		// drops the sign of -0
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

type clause struct {
	key  string
	vars map[string]string
	text string
}

// clauses evaluates the guard table in its fixed order.
func clauses(rule *banshee.Rule) []clause {
	var out []clause
	maxText := FormatThreshold(rule.ThresholdMax)
	minText := FormatThreshold(rule.ThresholdMin)

	if rule.TrendUp && rule.ThresholdMax == 0 {
		out = append(out, clause{key: KeyTrendUp, text: "trend ↑"})
	}
	if rule.TrendUp && rule.ThresholdMax != 0 {
		out = append(out, clause{
			key:  KeyTrendUpAndThresholdMax,
			vars: map[string]string{"thresholdMax": maxText},
			text: "(trend ↑ && value >= " + maxText + ")",
		})
	}
	if !rule.TrendUp && rule.ThresholdMax != 0 {
		out = append(out, clause{
			key:  KeyThresholdMax,
			vars: map[string]string{"thresholdMax": maxText},
			text: "value >= " + maxText,
		})
	}
	if rule.TrendDown && rule.ThresholdMin == 0 {
		out = append(out, clause{key: KeyTrendDown, text: "trend ↓"})
	}
	if rule.TrendDown && rule.ThresholdMin != 0 {
		out = append(out, clause{
			key:  KeyTrendDownAndThreshold,
			vars: map[string]string{"thresholdMin": minText},
			text: "(trend ↓ && value <= " + minText + ")",
		})
	}
	if !rule.TrendDown && rule.ThresholdMin != 0 {
		out = append(out, clause{
			key:  KeyThresholdMin,
			vars: map[string]string{"thresholdMin": minText},
			text: "value <= " + minText,
		})
	}
	return out
}

// BuildExpression renders the boolean expression under which rule fires.
// A rule without trends or thresholds renders as "".
func BuildExpression(rule *banshee.Rule) string {
	cs := clauses(rule)
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, orOperator)
}

// TranslateExpression is the localized form of BuildExpression, wrapped in
// the "rule fires when" template.
func TranslateExpression(rule *banshee.Rule, phrases Phrases) string {
	cs := clauses(rule)
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, phrases.Phrase(c.key, c.vars))
	}
	text := strings.Join(parts, phrases.Phrase(KeyOr, nil))
	return phrases.Phrase(KeyTemplate, map[string]string{"text": text})
}
