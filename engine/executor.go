package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// ============================================================================
// EXECUTOR — Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Normalize and validate the QuerySpec against the view's columns
//   2. Apply filters → SubView
//   3. Group, aggregate metrics, apply having, sort, limit
//   4. Dispatch to builder (table / text / growth / ratio)
//   5. Resolve reply template placeholders
//   6. Return Result
//
// This function never calls an AI service. All computation is local.
// ============================================================================

// NoDataReply is the reply for queries whose filters match nothing.
const NoDataReply = "No data found matching your criteria."

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
// Invalid specs return an error wrapping ErrUnknownField or ErrInvalidQuery.
// An empty match is a successful Result with Empty set.
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if spec.Measure == "" && needsMeasure(spec) {
		spec.Measure = cfg.DefaultMeasure
	}
	spec = NormalizeQuerySpec(spec)

	if err := Validate(spec, view); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"records":     view.Len(),
		"intent":      spec.Intent,
		"aggregation": spec.Aggregation,
		"groupBy":     spec.GroupBy,
		"metrics":     len(spec.Metrics),
	})
	log.Debug("executing query")

	if view.Len() == 0 {
		return emptyResult(spec), nil
	}

	// ── RATIO AGGREGATION (early return) ──────────────────────────────────
	if spec.Aggregation == "ratio" {
		return executeRatio(spec, view, cfg)
	}

	// 1. Apply filters → SubView (zero-copy)
	filtered := ApplyFilters(view, spec.Filters)
	if filtered.Len() == 0 {
		return emptyResult(spec), nil
	}
	log.WithField("filtered", filtered.Len()).Debug("filters applied")

	result := &Result{
		Success:   true,
		Title:     spec.Title,
		QuerySpec: &spec,
	}

	// 2. Non-aggregating paths
	switch spec.Aggregation {
	case "list":
		result.Type = "table"
		result.TableData = buildListTable(spec, filtered, cfg)
		result.Reply = ResolvePlaceholders(spec, nil, filtered, cfg)
		return result, nil

	case "growth":
		result.Type = "text"
		result.Data = BuildGrowthText(filtered, primary(spec), cfg.TemporalDimension)
		if g := result.Data.Growth; g != nil && g.Direction == "insufficient data" {
			result.Reply = fmt.Sprintf("The data shows %s for %s. Need at least 2 periods of data to show trends.",
				result.Data.Value, result.Data.Period)
			return result, nil
		}
		result.Reply = ResolvePlaceholders(spec, nil, filtered, cfg)
		return result, nil
	}

	// 3. Group and aggregate
	groups := GroupAndAggregate(filtered, spec.GroupBy, spec.Metrics, spec.Having, spec.SortBy, spec.SortMetric, spec.Limit)
	if len(groups) == 0 {
		return emptyResult(spec), nil
	}

	// 4. Dispatch to builder
	switch spec.Intent {
	case "table":
		result.Type = "table"
		result.TableData = BuildTable(spec, groups)
	default:
		result.Type = "text"
		result.Data = BuildText(spec, groups, filtered, cfg.TemporalDimension)
	}

	// 5. Resolve reply template placeholders
	result.Reply = ResolvePlaceholders(spec, groups, filtered, cfg)
	return result, nil
}

func emptyResult(spec QuerySpec) *Result {
	return &Result{
		Success:   true,
		Type:      "text",
		Empty:     true,
		Title:     spec.Title,
		Reply:     NoDataReply,
		QuerySpec: &spec,
	}
}

// needsMeasure reports whether the spec aggregates a measure it did not name.
func needsMeasure(spec QuerySpec) bool {
	if len(spec.Metrics) > 0 && spec.Aggregation != "growth" && spec.Aggregation != "ratio" {
		return false
	}
	return spec.Aggregation != "count" && spec.Aggregation != "list"
}

// primary returns the metric a scalar answer reports.
func primary(spec QuerySpec) Metric {
	name := spec.SortMetric
	if name == "" {
		name = primaryMetric(spec.Metrics)
	}
	for _, m := range spec.Metrics {
		if m.Name == name {
			return m
		}
	}
	return Metric{Name: spec.Measure, Aggregation: "sum", Measure: spec.Measure}
}

// ============================================================================
// RATIO EXECUTION (early return path)
// ============================================================================

func executeRatio(spec QuerySpec, view RecordView, cfg *config) (*Result, error) {
	denominator := ApplyFilters(view, spec.Filters)
	numerator := ApplyFilters(view, *spec.CompareFilters)
	if denominator.Len() == 0 {
		return emptyResult(spec), nil
	}

	metric := primary(spec)
	denomTotal := EvalMetric(denominator, metric)
	numTotal := EvalMetric(numerator, metric)

	var pct float64
	if denomTotal != 0 && !math.IsNaN(denomTotal) && !math.IsNaN(numTotal) {
		pct = (numTotal / denomTotal) * 100
	}

	numLabel := buildFilterLabel(spec.CompareFilters)
	denomLabel := buildFilterLabel(&spec.Filters)

	displayValue := fmt.Sprintf("%.1f%%", pct)
	// ConcatView for period derivation, no data copy
	period := DerivePeriod(newConcatView(denominator, numerator), cfg.TemporalDimension)

	data := &TextData{
		Label:    LabelForMetric(metric),
		Value:    displayValue,
		RawValue: pct,
		Period:   period,
		Count:    numerator.Len(),
		Ratio: &RatioData{
			NumeratorTotal:   numTotal,
			DenominatorTotal: denomTotal,
			Percentage:       pct,
			NumeratorLabel:   numLabel,
			DenominatorLabel: denomLabel,
		},
	}

	reply := spec.Reply
	if reply == "" {
		reply = fmt.Sprintf("%s is %s of %s (%s of %s).",
			numLabel, displayValue, denomLabel, FormatNumber(numTotal), FormatNumber(denomTotal))
	}
	replacements := map[string]string{
		"{ratio_percent}":     displayValue,
		"{numerator_total}":   FormatNumber(numTotal),
		"{denominator_total}": FormatNumber(denomTotal),
		"{numerator_label}":   numLabel,
		"{denominator_label}": denomLabel,
		"{period}":            period,
		"{total}":             FormatNumber(numTotal),
	}
	for k, v := range replacements {
		reply = strings.ReplaceAll(reply, k, v)
	}

	logrus.WithFields(logrus.Fields{
		"numerator":   numLabel,
		"denominator": denomLabel,
		"percent":     RoundTo2(pct),
	}).Debug("ratio computed")

	return &Result{
		Success:   true,
		Type:      "text",
		Title:     spec.Title,
		Reply:     stripUnresolvedPlaceholders(reply),
		Data:      data,
		QuerySpec: &spec,
	}, nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
func ResolvePlaceholders(spec QuerySpec, groups []Group, view RecordView, cfg *config) string {
	metric := primary(spec)
	if spec.Reply == "" {
		return buildDefaultReply(view, groups, metric)
	}

	count := view.Len()
	total := EvalMetric(view, metric)

	replacements := map[string]string{
		"{total}":  FormatNumber(total),
		"{count}":  FormatInt(count),
		"{period}": DerivePeriod(view, cfg.TemporalDimension),
		"{metric}": LabelForMetric(metric),
	}

	// Top group (highest value)
	if top, ok := topGroup(groups); ok {
		replacements["{top_category}"] = top.Label
		replacements["{top_amount}"] = FormatNumber(top.Value)
		replacements["{top_count}"] = FormatInt(top.Count)
	}
	replacements["{groups}"] = FormatInt(len(groups))

	if count > 0 && spec.Measure != "" {
		replacements["{avg}"] = FormatNumber(AvgMeasure(view, spec.Measure))
		replacements["{max}"] = FormatNumber(MaxMeasure(view, spec.Measure))
		replacements["{min}"] = FormatNumber(MinMeasure(view, spec.Measure))
	}

	if spec.Aggregation == "growth" {
		growth := BuildGrowthText(view, metric, cfg.TemporalDimension)
		if g := growth.Growth; g != nil {
			replacements["{growth_percent}"] = fmt.Sprintf("%.1f%%", g.ChangePercent)
			replacements["{change_amount}"] = FormatNumber(g.ChangeAmount)
			replacements["{earliest_value}"] = FormatNumber(g.EarliestValue)
			replacements["{latest_value}"] = FormatNumber(g.LatestValue)
			replacements["{earliest_period}"] = g.EarliestPeriod
			replacements["{latest_period}"] = g.LatestPeriod
			replacements["{direction}"] = g.Direction
		}
	}

	result := spec.Reply
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

func topGroup(groups []Group) (Group, bool) {
	if len(groups) == 0 {
		return Group{}, false
	}
	top := groups[0]
	for _, g := range groups[1:] {
		if desc(g.Value, top.Value) {
			top = g
		}
	}
	return top, true
}

// ============================================================================
// QUERYSPEC NORMALIZATION
// ============================================================================

// NormalizeQuerySpec applies deterministic rules to fix common AI inconsistencies.
func NormalizeQuerySpec(spec QuerySpec) QuerySpec {
	before := spec.Intent

	// Rule 1: "list" and "chart" intents render as tables
	if spec.Intent == "list" || spec.Intent == "chart" {
		spec.Intent = "table"
	}

	// Rule 2: "list" aggregation must be a table
	if spec.Aggregation == "list" {
		spec.Intent = "table"
	}

	// Rule 3: derive a metric from aggregation + measure
	if len(spec.Metrics) == 0 {
		if m, ok := derivedMetric(spec.Aggregation, spec.Measure); ok {
			spec.Metrics = []Metric{m}
		}
	}

	// Rule 4: growth and ratio are scalar answers
	if spec.Aggregation == "growth" || spec.Aggregation == "ratio" {
		spec.Intent = "text"
	}

	switch spec.Aggregation {
	case "list", "growth", "ratio":
	default:
		// Rule 5: grouped results are tables; a single metric without groups is text
		visible := 0
		for _, m := range spec.Metrics {
			if !m.Hidden {
				visible++
			}
		}
		switch {
		case len(spec.GroupBy) > 0 || visible > 1:
			spec.Intent = "table"
		default:
			spec.Intent = "text"
		}

		// Rule 6: ranked tables default to highest first
		if len(spec.GroupBy) > 0 && spec.SortBy == "" {
			spec.SortBy = "value_desc"
		}
	}

	if spec.Intent != before {
		logrus.WithFields(logrus.Fields{
			"from":        before,
			"to":          spec.Intent,
			"groupBy":     spec.GroupBy,
			"aggregation": spec.Aggregation,
		}).Debug("normalized query intent")
	}

	return spec
}

func derivedMetric(aggregation, measure string) (Metric, bool) {
	switch aggregation {
	case "count":
		return Metric{Name: "count", Aggregation: "count"}, true
	case "sum", "", "none", "growth", "ratio":
		if measure == "" {
			return Metric{}, false
		}
		return Metric{Name: measure, Aggregation: "sum", Measure: measure}, true
	case "avg", "max", "min":
		if measure == "" {
			return Metric{}, false
		}
		return Metric{Name: aggregation + "_" + measure, Aggregation: aggregation, Measure: measure}, true
	}
	return Metric{}, false
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func buildDefaultReply(view RecordView, groups []Group, metric Metric) string {
	if view.Len() == 0 {
		return NoDataReply
	}
	if len(groups) > 1 {
		top, _ := topGroup(groups)
		return fmt.Sprintf("%s leads with %s %s.", top.Label, FormatNumber(top.Value), strings.ToLower(LabelForMetric(metric)))
	}
	if len(groups) == 1 {
		return fmt.Sprintf("%s: %s (%s records).", LabelForMetric(metric), FormatNumber(groups[0].Value), FormatInt(view.Len()))
	}
	return fmt.Sprintf("Found %s records.", FormatInt(view.Len()))
}

// buildFilterLabel creates a human-readable label from Filters.
func buildFilterLabel(f *Filters) string {
	if f == nil || f.IsEmpty() {
		return "All"
	}

	parts := []string{}
	for _, field := range sortedKeys(f.Dimensions) {
		if f.HasFilter(field) {
			parts = append(parts, strings.Join(f.Dimensions[field], ", "))
		}
	}
	for _, field := range sortedKeys(f.Ranges) {
		r := f.Ranges[field]
		switch {
		case r.Min != nil && r.Max != nil:
			parts = append(parts, fmt.Sprintf("%s %s-%s", field, plainNumber(*r.Min), plainNumber(*r.Max)))
		case r.Min != nil:
			parts = append(parts, fmt.Sprintf("%s >= %s", field, plainNumber(*r.Min)))
		case r.Max != nil:
			parts = append(parts, fmt.Sprintf("%s <= %s", field, plainNumber(*r.Max)))
		}
	}

	if len(parts) == 0 {
		return "All records"
	}
	return strings.Join(parts, " / ")
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
