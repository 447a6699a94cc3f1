package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FILTERS
// ============================================================================

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"empty returns everything", Filters{}, 10},
		{"include is case-insensitive", Filters{Dimensions: map[string][]string{"batter": {"v kohli", "MS DHONI"}}}, 7},
		{"fields are AND-combined", Filters{Dimensions: map[string][]string{"batter": {"V Kohli"}, "year": {"2017"}}}, 1},
		{"exclude", Filters{Exclude: map[string][]string{"bowling_style": {"ob", "rm"}}}, 3},
		{"contains matches substrings", Filters{Contains: map[string][]string{"bowler": {"bumrah", "kumar"}}}, 6},
		{"range on over", Filters{Ranges: map[string]Range{"over": {Min: Float(16)}}}, 5},
		{"closed range", Filters{Ranges: map[string]Range{"over": {Min: Float(7), Max: Float(15)}}}, 3},
		{"inverted range matches nothing", Filters{Ranges: map[string]Range{"over": {Min: Float(16), Max: Float(10)}}}, 0},
		{"non-empty drops blank names", Filters{NonEmpty: []string{"batter"}}, 9},
		{"boolean measure matches true", Filters{Dimensions: map[string][]string{"isWicket": {"true"}}}, 2},
		{"float spelling matches whole measure", Filters{Dimensions: map[string][]string{"year": {"2016.0"}}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyFilters(fixture(), tt.filters).Len())
		})
	}
}

func TestApplyFiltersFlattensSubViews(t *testing.T) {
	first := ApplyFilters(fixture(), Filters{Dimensions: map[string][]string{"batting_team": {"RCB"}}})
	second := ApplyFilters(first, Filters{Dimensions: map[string][]string{"bowler": {"R Ashwin"}}})

	sv, ok := second.(*SubView)
	require.True(t, ok)
	_, nested := sv.parent.(*SubView)
	assert.False(t, nested)
	assert.Equal(t, 2, second.Len())
	assert.Equal(t, "V Kohli", second.Dimension(0, "batter"))
}

// ============================================================================
// AGGREGATION
// ============================================================================

func TestEvalMetric(t *testing.T) {
	view := fixture()
	assert.Equal(t, 26.0, EvalMetric(view, Metric{Aggregation: "sum", Measure: "runs_batter"}))
	assert.Equal(t, 10.0, EvalMetric(view, Metric{Aggregation: "count"}))
	assert.Equal(t, 2.6, EvalMetric(view, Metric{Aggregation: "avg", Measure: "runs_batter"}))
	assert.Equal(t, 20.0, EvalMetric(view, Metric{Aggregation: "max", Measure: "over"}))
	assert.Equal(t, 1.0, EvalMetric(view, Metric{Aggregation: "min", Measure: "over"}))
	assert.Equal(t, 3.0, EvalMetric(view, Metric{Aggregation: "distinct", Measure: "bowler"}))
	assert.Equal(t, 260.0, EvalMetric(view, Metric{Aggregation: "rate", Measure: "runs_batter", Scale: 100}))
	assert.Equal(t, 13.0, EvalMetric(view, Metric{Aggregation: "rate", Measure: "runs_batter", Over: "isWicket"}))
}

func TestEvalMetricRateWithoutDenominator(t *testing.T) {
	dhoni := ApplyFilters(fixture(), Filters{Dimensions: map[string][]string{"batter": {"MS Dhoni"}}})
	avg := EvalMetric(dhoni, Metric{Aggregation: "rate", Measure: "runs_batter", Over: "isWicket"})
	assert.True(t, math.IsNaN(avg))
}

func TestSortGroupsNaNLast(t *testing.T) {
	groups := []Group{
		{Key: "a", Value: math.NaN()},
		{Key: "b", Value: 3},
		{Key: "c", Value: 7},
	}
	SortGroups(groups, "value_desc")
	assert.Equal(t, []string{"c", "b", "a"}, []string{groups[0].Key, groups[1].Key, groups[2].Key})

	SortGroups(groups, "value_asc")
	assert.Equal(t, []string{"b", "c", "a"}, []string{groups[0].Key, groups[1].Key, groups[2].Key})
}

func TestGroupByMeasureAndDimension(t *testing.T) {
	groups := GroupAndAggregate(fixture(), []string{"year", "batting_team"},
		[]Metric{{Name: "runs", Aggregation: "sum", Measure: "runs_batter"}},
		nil, "chronological", "", 0)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"2016", "RCB"}, groups[0].Keys)
	assert.Equal(t, 17.0, groups[0].Metrics["runs"])
	assert.Equal(t, "2017", groups[1].Keys[0])
	assert.Equal(t, "2017", groups[2].Keys[0])
}

func TestValidate(t *testing.T) {
	view := fixture()
	tests := []struct {
		name string
		spec QuerySpec
		want error
	}{
		{"ok", QuerySpec{Aggregation: "sum", Measure: "runs_batter", GroupBy: []string{"batter"}}, nil},
		{"measure used as dimension filter", QuerySpec{Filters: Filters{Dimensions: map[string][]string{"year": {"2016"}}}}, nil},
		{"dimension as measure", QuerySpec{Aggregation: "sum", Measure: "batter"}, ErrUnknownField},
		{"contains on measure", QuerySpec{Filters: Filters{Contains: map[string][]string{"over": {"1"}}}}, ErrUnknownField},
		{"range on dimension", QuerySpec{Filters: Filters{Ranges: map[string]Range{"batter": {Min: Float(1)}}}}, ErrUnknownField},
		{"inverted range is valid", QuerySpec{Filters: Filters{Ranges: map[string]Range{"over": {Min: Float(10), Max: Float(2)}}}}, nil},
		{"unknown metric aggregation", QuerySpec{Metrics: []Metric{{Name: "x", Aggregation: "median", Measure: "over"}}}, ErrInvalidQuery},
		{"having unknown metric", QuerySpec{Metrics: []Metric{{Name: "balls", Aggregation: "count"}}, Having: []Condition{{Metric: "runs", Op: "gt"}}}, ErrUnknownField},
		{"having bad operator", QuerySpec{Metrics: []Metric{{Name: "balls", Aggregation: "count"}}, Having: []Condition{{Metric: "balls", Op: "like"}}}, ErrInvalidQuery},
		{"ratio without compare", QuerySpec{Aggregation: "ratio", Measure: "runs_batter"}, ErrInvalidQuery},
		{"bad sort", QuerySpec{SortBy: "random"}, ErrInvalidQuery},
		{"compare filter unknown", QuerySpec{Aggregation: "ratio", CompareFilters: &Filters{NonEmpty: []string{"umpire"}}}, ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spec, view)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
