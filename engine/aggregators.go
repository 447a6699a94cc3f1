package engine

import (
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Grouping, Metrics, Having and Sorting via RecordView
// ============================================================================
// Grouping produces SubViews (index lists into parent view).
// Pipeline: group → aggregate metrics → having → sort → limit.
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// The returned groups carry every metric in Metrics; Value holds the sort metric.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	metrics []Metric,
	having []Condition,
	sortBy string,
	sortMetric string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if len(groupBy) == 0 {
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	} else {
		groups = groupByFields(view, groupBy)
	}

	// 2. Aggregate
	if sortMetric == "" {
		sortMetric = primaryMetric(metrics)
	}
	for i := range groups {
		aggregateGroup(&groups[i], metrics, sortMetric)
	}

	// 3. Having
	if len(having) > 0 {
		kept := groups[:0]
		for _, g := range groups {
			if passesHaving(g, having) {
				kept = append(kept, g)
			}
		}
		groups = kept
	}

	// 4. Sort
	SortGroups(groups, sortBy)

	// 5. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

// groupByFields groups rows by the composite key of all fields, in first-seen order.
func groupByFields(view RecordView, fields []string) []Group {
	roles := rolesOf(view)
	grouped := make(map[string][]int)
	keys := make(map[string][]string)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		parts := make([]string, len(fields))
		for j, f := range fields {
			parts[j] = fieldValue(view, roles, i, f)
		}
		key := strings.Join(parts, " / ")
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
			keys[key] = parts
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Keys:  keys[key],
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, metrics []Metric, sortMetric string) {
	group.Count = group.View.Len()
	group.Metrics = make(map[string]float64, len(metrics))
	for _, m := range metrics {
		group.Metrics[m.Name] = EvalMetric(group.View, m)
	}
	group.Value = group.Metrics[sortMetric]
}

// EvalMetric computes one metric over a view.
// Rates with a zero denominator evaluate to NaN, which renders as "-".
func EvalMetric(view RecordView, m Metric) float64 {
	var v float64
	switch m.Aggregation {
	case "sum":
		v = SumMeasure(view, m.Measure)
	case "count":
		v = float64(view.Len())
	case "avg":
		v = AvgMeasure(view, m.Measure)
	case "max":
		v = MaxMeasure(view, m.Measure)
	case "min":
		v = MinMeasure(view, m.Measure)
	case "distinct":
		v = float64(len(UniqueValues(view, m.Measure)))
	case "rate":
		num := SumMeasure(view, m.Measure)
		den := float64(view.Len())
		if m.Over != "" {
			den = SumMeasure(view, m.Over)
		}
		if den == 0 {
			return math.NaN()
		}
		v = num / den
	default:
		v = SumMeasure(view, m.Measure)
	}
	if m.Scale != 0 {
		v *= m.Scale
	}
	return v
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := view.Measure(0, measure)
	for i := 1; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// MinMeasure returns the smallest value of a named measure.
func MinMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := view.Measure(0, measure)
	for i := 1; i < n; i++ {
		if v := view.Measure(i, measure); v < m {
			m = v
		}
	}
	return m
}

// UniqueValues returns distinct non-empty values of a field across a view.
func UniqueValues(view RecordView, field string) []string {
	roles := rolesOf(view)
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := fieldValue(view, roles, i, field)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// ============================================================================
// HAVING
// ============================================================================

func passesHaving(g Group, conds []Condition) bool {
	for _, c := range conds {
		v, ok := g.Metrics[c.Metric]
		if !ok || math.IsNaN(v) || !compare(v, c.Op, c.Value) {
			return false
		}
	}
	return true
}

func compare(v float64, op string, target float64) bool {
	switch op {
	case "gt":
		return v > target
	case "gte":
		return v >= target
	case "lt":
		return v < target
	case "lte":
		return v <= target
	case "eq":
		return v == target
	case "ne":
		return v != target
	}
	return false
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// NaN values always sort last.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return desc(groups[i].Value, groups[j].Value) })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return asc(groups[i].Value, groups[j].Value) })
	case "chronological", "date_asc":
		sort.SliceStable(groups, func(i, j int) bool { return periodLess(groups[i].Key, groups[j].Key) })
	case "reverse_chronological", "date_desc":
		sort.SliceStable(groups, func(i, j int) bool { return periodLess(groups[j].Key, groups[i].Key) })
	case "label_asc", "alpha_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	case "label_desc", "alpha_desc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) > strings.ToLower(groups[j].Key) })
	default:
		// preserve grouping order
	}
}

func desc(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

func asc(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// primaryMetric returns the first visible metric name.
func primaryMetric(metrics []Metric) string {
	for _, m := range metrics {
		if !m.Hidden {
			return m.Name
		}
	}
	if len(metrics) > 0 {
		return metrics[0].Name
	}
	return ""
}
