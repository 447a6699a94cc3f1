package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/iplstats/engine"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

func balls() engine.RecordView {
	row := func(season, batter, style, phase string, year, over, runs, wicket float64) engine.Record {
		return engine.Record{
			Dimensions: map[string]string{
				"season":        season,
				"batter":        batter,
				"bowling_style": style,
				"phase":         phase,
				"umpire":        "",
			},
			Measures: map[string]float64{
				"year":        year,
				"over":        over,
				"runs_batter": runs,
				"isWicket":    wicket,
			},
		}
	}
	return engine.NewSliceView([]engine.Record{
		row("2007/08", "SC Ganguly", "rm", "powerplay", 2008, 1, 0, 0),
		row("2007/08", "BB McCullum", "lfm", "death", 2008, 17, 6, 0),
		row("2016", "V Kohli", "ob", "middle", 2016, 9, 4, 1),
		row("2024", "VR Iyer", "rf", "middle", 2024, 8, 2, 0),
	})
}

func TestDiscoverFromView(t *testing.T) {
	cfg := Discover(balls(), Cricket())

	assert.Equal(t, "IPL ball-by-ball", cfg.Name)
	assert.Equal(t, []string{"batter", "bowling_style", "phase", "season"}, cfg.DimensionKeys())
	assert.Equal(t, []string{"isWicket", "over", "runs_batter", "year"}, cfg.MeasureKeys())

	require.Len(t, cfg.SkippedColumns, 1)
	assert.Equal(t, "umpire", cfg.SkippedColumns[0].Column)

	season, ok := cfg.Dimension("season")
	require.True(t, ok)
	assert.True(t, season.IsTemporal)
	assert.Equal(t, []string{"2007/08", "2016", "2024"}, season.SampleValues)
	assert.Equal(t, "low", season.CardinalityHint)
	assert.Contains(t, season.Description, "season")

	phase, _ := cfg.Dimension("phase")
	assert.Equal(t, "over", phase.DerivedFrom)

	batter, _ := cfg.Dimension("batter")
	assert.False(t, batter.IsTemporal)

	wicket, ok := cfg.Measure("isWicket")
	require.True(t, ok)
	assert.True(t, wicket.IsFlag)
	assert.Equal(t, "Wicket", wicket.DisplayName)

	over, _ := cfg.Measure("over")
	assert.False(t, over.IsFlag)

	assert.NotEmpty(t, cfg.Rules)
	assert.Equal(t, "runs_batter", cfg.GetDefaultMeasure())
	assert.Equal(t, "year", cfg.TemporalField())
}

func TestDiscoverWithoutCatalog(t *testing.T) {
	cfg := Discover(balls(), Config{}, DiscoverOptions{SampleSize: 2, Name: "sample"})

	assert.Equal(t, "sample", cfg.Name)
	wicket, _ := cfg.Measure("isWicket")
	assert.True(t, wicket.IsFlag, "only the first two rows are sampled")
	assert.Equal(t, "Is Wicket", wicket.DisplayName)

	season, _ := cfg.Dimension("season")
	assert.Equal(t, []string{"2007/08"}, season.SampleValues)
	assert.Empty(t, cfg.Rules)
}

func TestDetectTemporalPattern(t *testing.T) {
	tests := []struct {
		samples []string
		want    bool
	}{
		{[]string{"2008-04-18", "2024-05-26"}, true},
		{[]string{"2007/08", "2009", "2009/10", "2011"}, true},
		{[]string{"Apr-2016"}, true},
		{[]string{"RCB", "CSK"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		got, _ := detectTemporalPattern(tt.samples)
		assert.Equal(t, tt.want, got, "%v", tt.samples)
	}
}

func TestToDisplayName(t *testing.T) {
	assert.Equal(t, "Runs Batter", toDisplayName("runs_batter"))
	assert.Equal(t, "Is Wicket", toDisplayName("isWicket"))
	assert.Equal(t, "Batting Team", toDisplayName("batting_team"))
}

// ============================================================================
// CATALOG TESTS
// ============================================================================

func TestCatalogRoundTripYAML(t *testing.T) {
	data, err := EncodeCatalog(Cricket())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, Cricket().DimensionKeys(), cfg.DimensionKeys())
	assert.Equal(t, Cricket().MeasureKeys(), cfg.MeasureKeys())
	assert.Equal(t, Cricket().Rules, cfg.Rules)
}

func TestParseCatalog(t *testing.T) {
	cfg, err := ParseCatalog([]byte(`
name: custom
dimensions:
  - key: batter
    description: Striker
measures:
  - key: runs_batter
    unit: runs
rules:
  - Only count legal deliveries.
`))
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Name)
	d, ok := cfg.Dimension("batter")
	require.True(t, ok)
	assert.Equal(t, "Striker", d.Description)
	assert.Equal(t, []string{"Only count legal deliveries."}, cfg.Rules)

	_, err = ParseCatalog([]byte("measures:\n  - unit: runs\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("dimensions: [unclosed"))
	assert.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
