package engine

import (
	"fmt"
)

// ============================================================================
// VALIDATION — Allow-list check of a QuerySpec against a view's columns
// ============================================================================
// Every field a QuerySpec references must exist in the view with a role that
// fits its use. Every operation name must be one of the known primitives.
// ============================================================================

var (
	allowedAggregations = map[string]bool{
		"": true, "sum": true, "count": true, "avg": true, "max": true, "min": true,
		"list": true, "growth": true, "ratio": true, "none": true,
	}
	allowedMetricAggregations = map[string]bool{
		"sum": true, "count": true, "avg": true, "min": true, "max": true, "distinct": true, "rate": true,
	}
	allowedIntents = map[string]bool{"": true, "text": true, "table": true, "list": true, "chart": true}
	allowedOps     = map[string]bool{"gt": true, "gte": true, "lt": true, "lte": true, "eq": true, "ne": true}
	allowedSorts   = map[string]bool{
		"": true, "value_desc": true, "value_asc": true,
		"chronological": true, "date_asc": true, "reverse_chronological": true, "date_desc": true,
		"label_asc": true, "alpha_asc": true, "label_desc": true, "alpha_desc": true,
	}
)

// Validate checks spec against the columns of view.
// Errors wrap ErrUnknownField or ErrInvalidQuery.
func Validate(spec QuerySpec, view RecordView) error {
	roles := rolesOf(view)

	if !allowedIntents[spec.Intent] {
		return fmt.Errorf("%w: intent %q", ErrInvalidQuery, spec.Intent)
	}
	if !allowedAggregations[spec.Aggregation] {
		return fmt.Errorf("%w: aggregation %q", ErrInvalidQuery, spec.Aggregation)
	}
	if spec.Measure != "" && !roles.isMeasure(spec.Measure) {
		return fmt.Errorf("%w: measure %q", ErrUnknownField, spec.Measure)
	}
	if spec.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, spec.Limit)
	}
	if !allowedSorts[spec.SortBy] {
		return fmt.Errorf("%w: sortBy %q", ErrInvalidQuery, spec.SortBy)
	}

	if err := validateFilters(spec.Filters, roles, "filters"); err != nil {
		return err
	}
	if spec.CompareFilters != nil {
		if err := validateFilters(*spec.CompareFilters, roles, "compareFilters"); err != nil {
			return err
		}
	}
	if spec.Aggregation == "ratio" && spec.CompareFilters == nil {
		return fmt.Errorf("%w: ratio needs compareFilters", ErrInvalidQuery)
	}

	for _, f := range spec.GroupBy {
		if !roles.has(f) {
			return fmt.Errorf("%w: groupBy %q", ErrUnknownField, f)
		}
	}

	names := make(map[string]bool, len(spec.Metrics))
	for _, m := range spec.Metrics {
		if err := validateMetric(m, roles); err != nil {
			return err
		}
		if names[m.Name] {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalidQuery, m.Name)
		}
		names[m.Name] = true
	}

	for _, c := range spec.Having {
		if !names[c.Metric] {
			return fmt.Errorf("%w: having references metric %q", ErrUnknownField, c.Metric)
		}
		if !allowedOps[c.Op] {
			return fmt.Errorf("%w: having operator %q", ErrInvalidQuery, c.Op)
		}
	}
	if spec.SortMetric != "" && !names[spec.SortMetric] {
		return fmt.Errorf("%w: sortMetric %q", ErrUnknownField, spec.SortMetric)
	}
	return nil
}

func validateMetric(m Metric, roles fieldRoles) error {
	if m.Name == "" {
		return fmt.Errorf("%w: metric without name", ErrInvalidQuery)
	}
	if !allowedMetricAggregations[m.Aggregation] {
		return fmt.Errorf("%w: metric %q aggregation %q", ErrInvalidQuery, m.Name, m.Aggregation)
	}
	switch m.Aggregation {
	case "count":
		// no measure needed
	case "distinct":
		if !roles.has(m.Measure) {
			return fmt.Errorf("%w: metric %q field %q", ErrUnknownField, m.Name, m.Measure)
		}
	default:
		if !roles.isMeasure(m.Measure) {
			return fmt.Errorf("%w: metric %q measure %q", ErrUnknownField, m.Name, m.Measure)
		}
	}
	if m.Over != "" && !roles.isMeasure(m.Over) {
		return fmt.Errorf("%w: metric %q over %q", ErrUnknownField, m.Name, m.Over)
	}
	return nil
}

func validateFilters(f Filters, roles fieldRoles, where string) error {
	for _, m := range []map[string][]string{f.Dimensions, f.Exclude} {
		for field := range m {
			if !roles.has(field) {
				return fmt.Errorf("%w: %s field %q", ErrUnknownField, where, field)
			}
		}
	}
	for field := range f.Contains {
		if !roles.isDimension(field) {
			return fmt.Errorf("%w: %s contains field %q", ErrUnknownField, where, field)
		}
	}
	for field := range f.Ranges {
		if !roles.isMeasure(field) {
			return fmt.Errorf("%w: %s range field %q", ErrUnknownField, where, field)
		}
	}
	for _, field := range f.NonEmpty {
		if !roles.has(field) {
			return fmt.Errorf("%w: %s nonEmpty field %q", ErrUnknownField, where, field)
		}
	}
	return nil
}
