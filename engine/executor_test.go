package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// EXECUTE — scalar, ranked, empty and error paths
// ============================================================================

func TestExecuteScalarSum(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "sum",
		Measure:     "runs_batter",
		Filters:     Filters{Dimensions: map[string][]string{"batter": {"v kohli"}}},
	}, fixture())
	require.NoError(t, err)

	assert.Equal(t, "text", res.Type)
	assert.False(t, res.Empty)
	require.NotNil(t, res.Data)
	assert.Equal(t, 11.0, res.Data.RawValue)
	assert.Equal(t, "11", res.Data.Value)
	assert.Equal(t, "2016 – 2017", res.Data.Period)
	assert.Equal(t, 4, res.Data.Count)
}

func TestExecuteDefaultMeasure(t *testing.T) {
	res, err := Execute(QuerySpec{Aggregation: "sum"}, fixture())
	require.NoError(t, err)
	assert.Equal(t, 26.0, res.Data.RawValue)

	res, err = Execute(QuerySpec{Aggregation: "sum"}, fixture(), WithDefaultMeasure("isWicket"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Data.RawValue)
}

func TestExecuteRankedTable(t *testing.T) {
	spec := QuerySpec{
		GroupBy: []string{"batter"},
		Metrics: []Metric{
			{Name: "runs", Aggregation: "sum", Measure: "runs_batter"},
			{Name: "balls", Aggregation: "count"},
		},
		Filters: Filters{NonEmpty: []string{"batter"}},
		Limit:   2,
	}
	res, err := Execute(spec, fixture())
	require.NoError(t, err)

	assert.Equal(t, "table", res.Type)
	require.NotNil(t, res.TableData)
	cols := res.TableData.Columns
	require.Len(t, cols, 3)
	assert.Equal(t, "batter", cols[0].Key)
	assert.Equal(t, "Runs", cols[1].Label)
	assert.Equal(t, [][]string{
		{"V Kohli", "11", "4"},
		{"MS Dhoni", "9", "3"},
	}, res.TableData.Rows)
	require.NotNil(t, res.TableData.Summary)
	assert.Equal(t, "20", res.TableData.Summary.Values["runs"])
	assert.Equal(t, "V Kohli leads with 11 runs.", res.Reply)
}

func TestExecuteHavingAndRate(t *testing.T) {
	spec := QuerySpec{
		GroupBy: []string{"bowler"},
		Metrics: []Metric{
			{Name: "economy", Aggregation: "rate", Measure: "runs_batter", Scale: 6},
			{Name: "balls", Aggregation: "count", Hidden: true},
		},
		Having:  []Condition{{Metric: "balls", Op: "gte", Value: 4}},
		SortBy:  "value_asc",
		Filters: Filters{Exclude: map[string][]string{"bowling_style": {"rm"}}},
	}
	res, err := Execute(spec, fixture())
	require.NoError(t, err)

	require.Len(t, res.TableData.Rows, 1)
	// Ashwin: 1+6+0+1 = 8 runs in 4 balls → 12 per over
	assert.Equal(t, []string{"R Ashwin", "12"}, res.TableData.Rows[0])
	assert.Len(t, res.TableData.Columns, 2, "hidden metrics are not rendered")
}

func TestExecuteEmptyResult(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "sum",
		Filters:     Filters{Dimensions: map[string][]string{"batter": {"DG Bradman"}}},
	}, fixture())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Empty)
	assert.Equal(t, NoDataReply, res.Reply)
}

func TestExecuteInvertedRangeIsEmpty(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "sum",
		Measure:     "runs_batter",
		Filters:     Filters{Ranges: map[string]Range{"over": {Min: Float(16.5), Max: Float(9.5)}}},
	}, fixture())
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, NoDataReply, res.Reply)
}

func TestExecuteHavingRemovesEverything(t *testing.T) {
	res, err := Execute(QuerySpec{
		GroupBy: []string{"batter"},
		Metrics: []Metric{{Name: "balls", Aggregation: "count"}},
		Having:  []Condition{{Metric: "balls", Op: "gt", Value: 100}},
	}, fixture())
	require.NoError(t, err)
	assert.True(t, res.Empty)
}

func TestExecuteUnknownField(t *testing.T) {
	_, err := Execute(QuerySpec{
		Aggregation: "sum",
		Measure:     "runs_batter",
		GroupBy:     []string{"umpire"},
	}, fixture())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestExecuteInvalidAggregation(t *testing.T) {
	_, err := Execute(QuerySpec{Aggregation: "median", Measure: "runs_batter"}, fixture())
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestExecuteGrowth(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "growth",
		Measure:     "runs_batter",
		Filters:     Filters{Dimensions: map[string][]string{"batting_team": {"RCB"}}},
	}, fixture())
	require.NoError(t, err)

	g := res.Data.Growth
	require.NotNil(t, g)
	assert.Equal(t, "2016", g.EarliestPeriod)
	assert.Equal(t, "2017", g.LatestPeriod)
	assert.Equal(t, 17.0, g.EarliestValue)
	assert.Equal(t, 0.0, g.LatestValue)
	assert.Equal(t, "decreased", g.Direction)
	assert.Equal(t, "↓ 100.0%", res.Data.Value)
}

func TestExecuteGrowthInsufficientData(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "growth",
		Filters:     Filters{Dimensions: map[string][]string{"year": {"2016"}}},
	}, fixture())
	require.NoError(t, err)
	assert.Equal(t, "insufficient data", res.Data.Growth.Direction)
	assert.Contains(t, res.Reply, "Need at least 2 periods")
}

func TestExecuteRatio(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation:    "ratio",
		Measure:        "runs_batter",
		Filters:        Filters{Dimensions: map[string][]string{"batter": {"V Kohli"}}},
		CompareFilters: &Filters{Dimensions: map[string][]string{"batter": {"V Kohli"}, "bowling_style": {"rfm"}}},
		Reply:          "{ratio_percent} of runs came against pace",
	}, fixture())
	require.NoError(t, err)

	require.NotNil(t, res.Data.Ratio)
	assert.InDelta(t, 90.909, res.Data.Ratio.Percentage, 0.01)
	assert.Equal(t, "90.9% of runs came against pace", res.Reply)
}

func TestExecuteRatioLabels(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation:    "ratio",
		Measure:        "runs_batter",
		Filters:        Filters{Dimensions: map[string][]string{"batter": {"V Kohli"}, "bowler": {}}},
		CompareFilters: &Filters{Dimensions: map[string][]string{"batter": {"V Kohli"}, "bowling_style": {"rfm"}}},
	}, fixture())
	require.NoError(t, err)

	assert.Equal(t, "V Kohli / rfm", res.Data.Ratio.NumeratorLabel)
	assert.Equal(t, "V Kohli", res.Data.Ratio.DenominatorLabel, "fields without values are not labelled")
	assert.Equal(t, "V Kohli / rfm is 90.9% of V Kohli (10 of 11)", res.Reply)
}

func TestExecuteList(t *testing.T) {
	res, err := Execute(QuerySpec{
		Aggregation: "list",
		GroupBy:     []string{"batter", "bowler"},
		Measure:     "runs_batter",
		SortBy:      "value_desc",
		Filters:     Filters{Dimensions: map[string][]string{"batting_team": {"CSK"}}},
	}, fixture(), WithMaxListRows(2))
	require.NoError(t, err)

	assert.Equal(t, "table", res.Type)
	require.Len(t, res.TableData.Columns, 3)
	assert.Equal(t, "number", res.TableData.Columns[2].Type)
	require.Len(t, res.TableData.Rows, 2)
	assert.Equal(t, []string{"MS Dhoni", "V Kumar", "6"}, res.TableData.Rows[0])
	assert.Equal(t, "4 records", res.TableData.Summary.Label)
}

func TestExecuteReplyPlaceholders(t *testing.T) {
	res, err := Execute(QuerySpec{
		GroupBy: []string{"batting_team"},
		Measure: "runs_batter",
		Reply:   "{top_category} scored {top_amount} of {total} runs {unknown}",
	}, fixture())
	require.NoError(t, err)
	assert.Equal(t, "RCB scored 17 of 26 runs", res.Reply)
}

// ============================================================================
// NORMALIZATION
// ============================================================================

func TestNormalizeQuerySpec(t *testing.T) {
	tests := []struct {
		name       string
		in         QuerySpec
		wantIntent string
		wantSort   string
		wantMetric string
	}{
		{"grouped becomes table", QuerySpec{Intent: "text", Aggregation: "sum", Measure: "runs_batter", GroupBy: []string{"batter"}}, "table", "value_desc", "runs_batter"},
		{"scalar becomes text", QuerySpec{Intent: "table", Aggregation: "count"}, "text", "", "count"},
		{"list is a table", QuerySpec{Aggregation: "list"}, "table", "", ""},
		{"chart intent maps to table", QuerySpec{Intent: "chart", Aggregation: "avg", Measure: "runs_batter", GroupBy: []string{"year"}, SortBy: "date_asc"}, "table", "date_asc", "avg_runs_batter"},
		{"growth stays text", QuerySpec{Aggregation: "growth", Measure: "runs_batter", GroupBy: []string{"year"}}, "text", "", "runs_batter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuerySpec(tt.in)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, tt.wantSort, got.SortBy)
			if tt.wantMetric == "" {
				assert.Empty(t, got.Metrics)
			} else {
				require.Len(t, got.Metrics, 1)
				assert.Equal(t, tt.wantMetric, got.Metrics[0].Name)
			}
		})
	}
}

func TestNormalizeMultipleMetricsWithoutGroups(t *testing.T) {
	got := NormalizeQuerySpec(QuerySpec{Metrics: []Metric{
		{Name: "runs", Aggregation: "sum", Measure: "runs_batter"},
		{Name: "balls", Aggregation: "count"},
	}})
	assert.Equal(t, "table", got.Intent)

	res, err := Execute(got, fixture())
	require.NoError(t, err)
	require.Len(t, res.TableData.Rows, 1)
	assert.Equal(t, []string{"Total", "26", "10"}, res.TableData.Rows[0])
}

// ============================================================================
// FORMATTING
// ============================================================================

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1,234", FormatNumber(1234))
	assert.Equal(t, "-1,234,567", FormatNumber(-1234567))
	assert.Equal(t, "142.86", FormatNumber(142.857))
	assert.Equal(t, "1,000.50", FormatNumber(1000.5))
	assert.Equal(t, "-", FormatNumber(math.NaN()))
}

func TestPeriodLess(t *testing.T) {
	assert.True(t, periodLess("2007/08", "2009"))
	assert.True(t, periodLess("2016-04-09", "2016-05-01"))
	assert.True(t, periodLess("2016", "unknown"))
	assert.False(t, periodLess("2020", "2019"))
}

func TestLabelForField(t *testing.T) {
	assert.Equal(t, "Runs Batter", LabelForField("runs_batter"))
	assert.Equal(t, "IsWicket", LabelForField("isWicket"))
	assert.Equal(t, "Strike Rate", LabelForField("strike_rate"))
}
