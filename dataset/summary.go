package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/iplstats/engine"
)

// Summary describes the loaded dataset for the translation prompt.
type Summary struct {
	Records     int      `json:"records"`
	Seasons     int      `json:"seasons"`
	FirstSeason string   `json:"firstSeason,omitempty"`
	LastSeason  string   `json:"lastSeason,omitempty"`
	Matches     int      `json:"matches"`
	FirstDate   string   `json:"firstDate,omitempty"`
	LastDate    string   `json:"lastDate,omitempty"`
	Teams       []string `json:"teams,omitempty"`
}

// Summarize computes record, season, match, date and team statistics.
// Missing columns leave their fields empty.
func Summarize(view engine.RecordView) Summary {
	s := Summary{Records: view.Len()}

	seasonField := "season"
	if !hasKey(view, seasonField) {
		seasonField = "year"
	}
	seasons := sortedUnique(view, seasonField)
	s.Seasons = len(seasons)
	if len(seasons) > 0 {
		s.FirstSeason, s.LastSeason = seasons[0], seasons[len(seasons)-1]
	}

	s.Matches = len(engine.UniqueValues(view, "match_id"))

	if dates := sortedUnique(view, "date"); len(dates) > 0 {
		s.FirstDate, s.LastDate = dates[0], dates[len(dates)-1]
	}

	s.Teams = sortedUnique(view, "batting_team")
	return s
}

// String renders the summary as prompt lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Total records: %s\n", engine.FormatInt(s.Records))
	if s.Seasons > 0 {
		fmt.Fprintf(&b, "- Seasons: %s-%s (%d seasons)\n", s.FirstSeason, s.LastSeason, s.Seasons)
	}
	if s.Matches > 0 {
		fmt.Fprintf(&b, "- Total matches: %s\n", engine.FormatInt(s.Matches))
	}
	if s.FirstDate != "" {
		fmt.Fprintf(&b, "- Date range: %s to %s\n", s.FirstDate, s.LastDate)
	}
	if len(s.Teams) > 0 {
		fmt.Fprintf(&b, "- Teams: %s\n", strings.Join(s.Teams, ", "))
	}
	return b.String()
}

func sortedUnique(view engine.RecordView, field string) []string {
	if !hasKey(view, field) {
		return nil
	}
	vals := engine.UniqueValues(view, field)
	sort.Strings(vals)
	return vals
}

func hasKey(view engine.RecordView, field string) bool {
	for _, k := range view.DimensionKeys() {
		if k == field {
			return true
		}
	}
	for _, k := range view.MeasureKeys() {
		if k == field {
			return true
		}
	}
	return false
}
