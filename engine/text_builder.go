package engine

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// TEXT BUILDER — Produces TextData for scalar queries
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// ============================================================================

// BuildText produces a scalar answer from the single ungrouped group.
func BuildText(spec QuerySpec, groups []Group, view RecordView, temporal string) *TextData {
	metric := primary(spec)
	period := DerivePeriod(view, temporal)

	if len(groups) == 0 {
		return &TextData{
			Label:  LabelForMetric(metric),
			Value:  "0",
			Period: period,
		}
	}

	value, ok := groups[0].Metrics[metric.Name]
	if !ok {
		value = EvalMetric(view, metric)
	}

	return &TextData{
		Label:    LabelForMetric(metric),
		Value:    FormatNumber(value),
		RawValue: finite(value),
		Period:   period,
		Count:    view.Len(),
	}
}

// finite maps NaN and ±Inf to 0 so the value survives JSON encoding.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ============================================================================
// GROWTH BUILDER
// ============================================================================

// BuildGrowthText compares a metric between the earliest and latest period of
// the temporal field.
func BuildGrowthText(view RecordView, metric Metric, temporal string) *TextData {
	label := LabelForMetric(metric)
	if view.Len() == 0 {
		return &TextData{
			Label:  label,
			Value:  "No data",
			Period: "No data",
		}
	}

	// Partition rows by period
	roles := rolesOf(view)
	byPeriod := make(map[string][]int)
	for i := 0; i < view.Len(); i++ {
		p := fieldValue(view, roles, i, temporal)
		if p == "" {
			continue
		}
		byPeriod[p] = append(byPeriod[p], i)
	}

	// Need at least 2 distinct periods
	if len(byPeriod) < 2 {
		total := EvalMetric(view, metric)
		period := DerivePeriod(view, temporal)
		return &TextData{
			Label:    label,
			Value:    FormatNumber(total),
			RawValue: total,
			Period:   period,
			Count:    view.Len(),
			Growth: &GrowthData{
				EarliestValue:  total,
				LatestValue:    total,
				EarliestPeriod: period,
				LatestPeriod:   period,
				Direction:      "insufficient data",
			},
		}
	}

	periods := make([]string, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periodLess(periods[i], periods[j]) })

	first, last := periods[0], periods[len(periods)-1]
	earliest := EvalMetric(newSubView(view, byPeriod[first]), metric)
	latest := EvalMetric(newSubView(view, byPeriod[last]), metric)

	changeAmount := latest - earliest
	var changePercent float64
	if earliest != 0 && !math.IsNaN(earliest) {
		changePercent = (changeAmount / earliest) * 100
	}

	direction := "unchanged"
	if changePercent > 0.5 {
		direction = "increased"
	} else if changePercent < -0.5 {
		direction = "decreased"
	}

	var displayValue string
	switch direction {
	case "increased":
		displayValue = fmt.Sprintf("↑ %.1f%%", math.Abs(changePercent))
	case "decreased":
		displayValue = fmt.Sprintf("↓ %.1f%%", math.Abs(changePercent))
	default:
		displayValue = "→ No change"
	}

	return &TextData{
		Label:    label,
		Value:    displayValue,
		RawValue: changePercent,
		Period:   fmt.Sprintf("%s – %s", first, last),
		Count:    view.Len(),
		Growth: &GrowthData{
			EarliestValue:  earliest,
			LatestValue:    latest,
			EarliestPeriod: first,
			LatestPeriod:   last,
			ChangeAmount:   changeAmount,
			ChangePercent:  changePercent,
			Direction:      direction,
		},
	}
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period string from the temporal field.
func DerivePeriod(view RecordView, temporal string) string {
	if view.Len() == 0 {
		return "No data"
	}

	roles := rolesOf(view)
	if !roles.has(temporal) {
		return "All time"
	}

	var earliest, latest string
	for i := 0; i < view.Len(); i++ {
		p := fieldValue(view, roles, i, temporal)
		if p == "" {
			continue
		}
		if earliest == "" || periodLess(p, earliest) {
			earliest = p
		}
		if latest == "" || periodLess(latest, p) {
			latest = p
		}
	}

	switch {
	case earliest == "":
		return "All time"
	case earliest == latest:
		return earliest
	}
	return fmt.Sprintf("%s – %s", earliest, latest)
}
