package assistant

import (
	"regexp"
	"strings"

	"github.com/spektr-org/iplstats/engine"
	"github.com/spektr-org/iplstats/schema"
)

// ============================================================================
// FALLBACK QUERIES — Canned rankings for the most common questions
// ============================================================================
// Used only when Options.Fallback is set and the LLM path failed.
// Matching is by keyword, checked in order; the first match wins.
// ============================================================================

// FallbackRows is the ranking length of every canned query.
const FallbackRows = 12

var fallbackSeasons = []string{"2024", "2023", "2022", "2021"}

var srPattern = regexp.MustCompile(`\bsr\b`)

// FallbackSpec returns a canned QuerySpec for question, if one matches.
func FallbackSpec(question string) (engine.QuerySpec, bool) {
	q := strings.ToLower(question)

	switch {
	case hasAny(q, "top", "best", "highest") && hasAny(q, "run", "scorer", "batsman", "batter") &&
		!hasAny(q, "death", "pace", "bowling") && !hasAny(q, fallbackSeasons...):
		return topRunScorers(), true

	case hasAny(q, "wicket", "bowler") && strings.Contains(q, "top"):
		return topWicketTakers(), true

	case strings.Contains(q, "death") && strings.Contains(q, "pace"):
		return deathOversVsPace(), true

	case (strings.Contains(q, "strike rate") || srPattern.MatchString(q)) && strings.Contains(q, "death"):
		return deathOverStrikeRate(), true
	}

	for _, season := range fallbackSeasons {
		if strings.Contains(q, season) {
			return seasonTopScorers(season), true
		}
	}
	return engine.QuerySpec{}, false
}

func hasAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ── Canned specs ──────────────────────────────────────────────────────────

var (
	mRuns        = engine.Metric{Name: "runs", Aggregation: "sum", Measure: "runs_batter"}
	mBalls       = engine.Metric{Name: "balls", Aggregation: "count"}
	mStrikeRate  = engine.Metric{Name: "strike_rate", Aggregation: "rate", Measure: "runs_batter", Scale: 100}
	mBatAverage  = engine.Metric{Name: "average", Aggregation: "rate", Measure: "runs_batter", Over: "isWicket"}
	mFours       = engine.Metric{Name: "fours", Aggregation: "sum", Measure: "isFour"}
	mSixes       = engine.Metric{Name: "sixes", Aggregation: "sum", Measure: "isSix"}
	mWickets     = engine.Metric{Name: "wickets", Aggregation: "sum", Measure: "isWicket"}
	mConceded    = engine.Metric{Name: "runs_conceded", Aggregation: "sum", Measure: "runs_total"}
	mBowlAverage = engine.Metric{Name: "average", Aggregation: "rate", Measure: "runs_total", Over: "isWicket"}
	mEconomy     = engine.Metric{Name: "economy", Aggregation: "rate", Measure: "runs_total", Scale: 6}
)

// deathOvers is "over" >= 16.
var deathOvers = engine.Range{Min: engine.Float(16)}

func ranking(player, title, sortMetric string, metrics ...engine.Metric) engine.QuerySpec {
	return engine.QuerySpec{
		Intent:     "table",
		Filters:    engine.Filters{NonEmpty: []string{player}},
		GroupBy:    []string{player},
		Metrics:    metrics,
		SortBy:     "value_desc",
		SortMetric: sortMetric,
		Limit:      FallbackRows,
		Title:      title,
		Confidence: 1,
	}
}

func topRunScorers() engine.QuerySpec {
	spec := ranking("batter", "Top run scorers", "runs",
		mRuns, mBalls, mStrikeRate, mBatAverage, mFours, mSixes)
	spec.Having = []engine.Condition{{Metric: "runs", Op: "gt", Value: 500}}
	return spec
}

func topWicketTakers() engine.QuerySpec {
	spec := ranking("bowler", "Top wicket takers", "wickets",
		mWickets, mBalls, mConceded, mBowlAverage, mEconomy)
	spec.Having = []engine.Condition{{Metric: "wickets", Op: "gte", Value: 15}}
	return spec
}

func deathOversVsPace() engine.QuerySpec {
	spec := ranking("batter", "Death overs vs pace", "runs",
		mRuns, mBalls, mStrikeRate, mFours, mSixes)
	spec.Filters.Ranges = map[string]engine.Range{"over": deathOvers}
	spec.Filters.Dimensions = map[string][]string{"bowling_style": append([]string(nil), schema.PaceStyles...)}
	spec.Having = []engine.Condition{{Metric: "balls", Op: "gte", Value: 25}}
	return spec
}

func deathOverStrikeRate() engine.QuerySpec {
	spec := ranking("batter", "Death overs strike rate", "strike_rate",
		mStrikeRate, mRuns, mBalls, mFours, mSixes)
	spec.Filters.Ranges = map[string]engine.Range{"over": deathOvers}
	spec.Having = []engine.Condition{
		{Metric: "balls", Op: "gte", Value: 30},
		{Metric: "runs", Op: "gt", Value: 100},
	}
	return spec
}

func seasonTopScorers(year string) engine.QuerySpec {
	spec := ranking("batter", "Top run scorers in "+year, "runs",
		mRuns, mBalls, mStrikeRate, mBatAverage, mFours, mSixes)
	spec.Filters.Dimensions = map[string][]string{"year": {year}}
	spec.Having = []engine.Condition{{Metric: "runs", Op: "gt", Value: 200}}
	return spec
}

// ============================================================================
// SUGGESTIONS
// ============================================================================

// ExampleQuestions are shown to users who do not know what to ask.
var ExampleQuestions = []string{
	"Who are the top 10 run scorers in IPL history?",
	"Best batters vs pace bowling in death overs",
	"Top wicket takers in IPL 2024",
	"Strike rate in death overs",
}

// Suggestions returns the help text for questions that could not be understood.
func Suggestions() string {
	return "I couldn't understand your question. Please try asking about:\n\n" +
		"• Top run scorers or wicket takers\n" +
		"• Performance in death overs, powerplay, or middle overs\n" +
		"• Strike rates or averages\n" +
		"• Specific seasons (2008-2024)\n" +
		"• Performance vs pace or spin bowling\n" +
		"• Team-specific statistics\n\n" +
		"Example: '" + ExampleQuestions[0] + "'"
}
