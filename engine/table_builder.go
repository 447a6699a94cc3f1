package engine

import (
	"sort"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from QuerySpec + Groups
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// ============================================================================

// BuildTable produces a ranked TableData: one row per group, one column per
// groupBy field followed by one column per visible metric.
func BuildTable(spec QuerySpec, groups []Group) *TableData {
	if len(groups) == 0 {
		return &TableData{
			Title:   spec.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	metrics := visibleMetrics(spec.Metrics)

	columns := make([]Column, 0, len(spec.GroupBy)+len(metrics))
	if len(spec.GroupBy) == 0 {
		columns = append(columns, Column{Key: "group", Label: "Group", Type: "text", Align: "left"})
	}
	for _, field := range spec.GroupBy {
		columns = append(columns, Column{Key: field, Label: LabelForField(field), Type: "text", Align: "left"})
	}
	for _, m := range metrics {
		columns = append(columns, Column{Key: m.Name, Label: LabelForMetric(m), Type: "number", Align: "right"})
	}

	rows := make([][]string, 0, len(groups))
	totals := make(map[string]float64)
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		if len(spec.GroupBy) == 0 {
			row = append(row, g.Label)
		}
		row = append(row, g.Keys...)
		for _, m := range metrics {
			v := g.Metrics[m.Name]
			row = append(row, FormatNumber(v))
			totals[m.Name] += v
		}
		rows = append(rows, row)
	}

	table := &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
	}

	// Totals only make sense for additive metrics across several groups.
	if len(groups) > 1 {
		values := make(map[string]string)
		for _, m := range metrics {
			if m.Aggregation == "sum" || m.Aggregation == "count" {
				values[m.Name] = FormatNumber(totals[m.Name])
			}
		}
		if len(values) > 0 {
			table.Summary = &Summary{Label: "Total", Values: values}
		}
	}
	return table
}

// ============================================================================
// LIST TABLE — Row per record
// ============================================================================

func buildListTable(spec QuerySpec, view RecordView, cfg *config) *TableData {
	roles := rolesOf(view)

	fields := spec.GroupBy
	if len(fields) == 0 {
		fields = view.DimensionKeys()
	}
	if spec.Measure != "" && !contains(fields, spec.Measure) {
		fields = append(append([]string{}, fields...), spec.Measure)
	}

	columns := make([]Column, 0, len(fields))
	for _, f := range fields {
		col := Column{Key: f, Label: LabelForField(f), Type: "text", Align: "left"}
		if roles.isMeasure(f) {
			col.Type, col.Align = "number", "right"
		}
		columns = append(columns, col)
	}

	order := make([]int, view.Len())
	for i := range order {
		order[i] = i
	}
	if spec.Measure != "" {
		switch spec.SortBy {
		case "value_desc":
			sort.SliceStable(order, func(a, b int) bool {
				return view.Measure(order[a], spec.Measure) > view.Measure(order[b], spec.Measure)
			})
		case "value_asc":
			sort.SliceStable(order, func(a, b int) bool {
				return view.Measure(order[a], spec.Measure) < view.Measure(order[b], spec.Measure)
			})
		}
	}

	limit := spec.Limit
	if limit <= 0 || limit > cfg.MaxListRows {
		limit = cfg.MaxListRows
	}
	if len(order) > limit {
		order = order[:limit]
	}

	rows := make([][]string, 0, len(order))
	for _, i := range order {
		row := make([]string, len(fields))
		for j, f := range fields {
			if roles.isMeasure(f) {
				row[j] = FormatNumber(view.Measure(i, f))
			} else {
				row[j] = view.Dimension(i, f)
			}
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: FormatInt(view.Len()) + " records",
		},
	}
}

func visibleMetrics(metrics []Metric) []Metric {
	out := make([]Metric, 0, len(metrics))
	for _, m := range metrics {
		if !m.Hidden {
			out = append(out, m)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
