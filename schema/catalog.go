package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CATALOG — Column descriptions and domain rules for ball-by-ball data
// ============================================================================
// The catalog is the human-written half of the schema: what each column
// means and which cricket conventions the translator must follow. Discovery
// supplies the other half (which columns exist, sample values).
// A YAML file with the same shape can replace the built-in catalog.
// ============================================================================

// PaceStyles and SpinStyles classify the bowling_style column.
var (
	PaceStyles = []string{"rm", "rfm", "rmf", "lf", "lfm", "lmf"}
	SpinStyles = []string{"ob", "lb", "sla", "lbg", "lws"}
)

// Cricket returns the built-in catalog for IPL ball-by-ball data.
func Cricket() Config {
	return Config{
		Name:        "IPL ball-by-ball",
		Version:     "1.0",
		Description: "One row per delivery bowled in the Indian Premier League.",
		Table:       "ipl_balls",
		Dimensions: []DimensionMeta{
			{Key: "season", DisplayName: "Season", Description: "IPL season label, e.g. 2007/08 or 2024", IsTemporal: true},
			{Key: "date", DisplayName: "Date", Description: "Match date (YYYY-MM-DD)", IsTemporal: true, TemporalFormat: "yyyy-MM-dd"},
			{Key: "venue", DisplayName: "Venue", Description: "Stadium"},
			{Key: "batting_team", DisplayName: "Batting Team", Description: "Team batting on this delivery"},
			{Key: "bowling_team", DisplayName: "Bowling Team", Description: "Team bowling on this delivery"},
			{Key: "batter", DisplayName: "Batter", Description: "Batter on strike (empty on some extras)"},
			{Key: "bowler", DisplayName: "Bowler", Description: "Bowler of the delivery"},
			{Key: "non_striker", DisplayName: "Non-striker", Description: "Batter at the non-striker's end"},
			{Key: "bat_hand", DisplayName: "Bat Hand", Description: "Batting hand: RHB or LHB"},
			{Key: "bowling_style", DisplayName: "Bowling Style", Description: "Pace: rm rfm rmf lf lfm lmf; spin: ob lb sla lbg lws"},
			{Key: "batting_captain", DisplayName: "Batting Captain"},
			{Key: "bowling_captain", DisplayName: "Bowling Captain"},
			{Key: "shotType", DisplayName: "Shot Type"},
			{Key: "winner", DisplayName: "Winner", Description: "Match winner"},
			{Key: "toss_winner", DisplayName: "Toss Winner"},
			{Key: "toss_decision", DisplayName: "Toss Decision", Description: "bat or field"},
			{Key: "playerofmatch", DisplayName: "Player of the Match"},
			{Key: "phase", DisplayName: "Phase", Description: "powerplay (overs 1-6), middle (7-15) or death (16+)", DerivedFrom: "over"},
		},
		Measures: []MeasureMeta{
			{Key: "match_id", DisplayName: "Match ID", Unit: "id", Aggregations: []string{"distinct"}, DefaultAggregation: "distinct"},
			{Key: "year", DisplayName: "Year", Description: "Calendar year of the season", IsTemporal: true},
			{Key: "innings", DisplayName: "Innings", Description: "1 or 2 (3+ for super overs)"},
			{Key: "over", DisplayName: "Over", Description: "Over number, 1-20"},
			{Key: "ball", DisplayName: "Ball", Description: "Ball within the over"},
			{Key: "runs_batter", DisplayName: "Runs (batter)", Description: "Runs credited to the batter", Unit: "runs"},
			{Key: "runs_total", DisplayName: "Runs (total)", Description: "Runs off the delivery including extras; runs conceded by the bowler", Unit: "runs"},
			{Key: "isFour", DisplayName: "Four", Description: "1 when the batter hit a four", Unit: "flag", IsFlag: true},
			{Key: "isSix", DisplayName: "Six", Description: "1 when the batter hit a six", Unit: "flag", IsFlag: true},
			{Key: "isWicket", DisplayName: "Wicket", Description: "1 when a wicket fell", Unit: "flag", IsFlag: true},
			{Key: "isSuperOver", DisplayName: "Super Over", Unit: "flag", IsFlag: true},
			{Key: "team_runs", DisplayName: "Team Runs", Description: "Team score after the delivery", Unit: "runs"},
			{Key: "team_wickets", DisplayName: "Team Wickets"},
			{Key: "curr_batter_runs", DisplayName: "Batter Runs So Far", Unit: "runs"},
			{Key: "curr_batter_balls", DisplayName: "Batter Balls So Far", Unit: "balls"},
		},
		Rules: []string{
			`Phases: powerplay is "over" <= 6, middle overs are "over" 7-15, death overs are "over" >= 16 (or filter "phase").`,
			`Pace bowling: "bowling_style" in rm, rfm, rmf, lf, lfm, lmf. Spin bowling: "bowling_style" in ob, lb, sla, lbg, lws.`,
			`Each row is one ball: balls faced or bowled = count of rows.`,
			`Strike rate = runs_batter / balls * 100 (rate of runs_batter, scale 100).`,
			`Batting average = runs_batter / dismissals (rate of runs_batter over isWicket).`,
			`Economy = runs_total / balls * 6 (rate of runs_total, scale 6).`,
			`Bowling average = runs_total / wickets (rate of runs_total over isWicket).`,
			`Wickets = sum of isWicket. Fours = sum of isFour. Sixes = sum of isSix.`,
			`Apply minimum thresholds with "having": at least 100 balls for batting rates, 50 balls for bowling rates.`,
			`Always exclude empty player names with "nonEmpty" when grouping by batter or bowler.`,
			`Sort by the main metric and limit rankings to 10-15 rows.`,
		},
	}
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse catalog: %w", err)
	}
	for _, d := range cfg.Dimensions {
		if d.Key == "" {
			return Config{}, fmt.Errorf("parse catalog: dimension without key")
		}
	}
	for _, m := range cfg.Measures {
		if m.Key == "" {
			return Config{}, fmt.Errorf("parse catalog: measure without key")
		}
	}
	return cfg, nil
}

// EncodeCatalog renders a catalog as YAML, e.g. to seed a custom catalog file.
func EncodeCatalog(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
