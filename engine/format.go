package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatNumber formats a value with comma separators.
// Whole numbers print without decimals, everything else with two. NaN prints "-".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}

	negative := v < 0
	if negative {
		v = -v
	}
	cents := int64(math.Round(v * 100))
	result := fmt.Sprintf("%s.%02d", FormatInt(int(cents/100)), cents%100)
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

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// plainNumber renders a measure as a grouping key: "2016", "0.5".
func plainNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseBool maps boolean spellings onto the 0/1 encoding used for flag measures.
func parseBool(s string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return 1, true
	case "false", "f", "no", "n":
		return 0, true
	}
	return 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// PERIOD ORDERING
// ============================================================================

// periodKey converts a temporal key into a sortable number.
// Handles years ("2016"), split seasons ("2007/08") and ISO dates ("2016-04-09").
func periodKey(key string) (float64, bool) {
	key = strings.TrimSpace(key)
	if t, err := time.Parse("2006-01-02", key); err == nil {
		return float64(t.Year()*10000 + int(t.Month())*100 + t.Day()), true
	}
	if len(key) >= 4 {
		if y, err := strconv.Atoi(key[:4]); err == nil && (len(key) == 4 || key[4] < '0' || key[4] > '9') {
			return float64(y * 10000), true
		}
	}
	if f, err := strconv.ParseFloat(key, 64); err == nil {
		return f, true
	}
	return 0, false
}

// periodLess orders temporal keys chronologically, falling back to string order.
func periodLess(a, b string) bool {
	ka, okA := periodKey(a)
	kb, okB := periodKey(b)
	switch {
	case okA && okB:
		if ka != kb {
			return ka < kb
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

// ============================================================================
// LABELS
// ============================================================================

// LabelForField turns a column or metric name into a display label.
//
//	"runs_batter" → "Runs Batter", "isWicket" → "IsWicket"
func LabelForField(field string) string {
	parts := strings.FieldsFunc(field, func(r rune) bool { return r == '_' || r == ' ' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// LabelForMetric returns the display label of a metric.
func LabelForMetric(m Metric) string {
	if m.Name != "" {
		return LabelForField(m.Name)
	}
	return LabelForAggregation(m.Aggregation)
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Total"
	case "count":
		return "Count"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	case "distinct":
		return "Distinct"
	case "rate":
		return "Rate"
	default:
		return "Value"
	}
}
