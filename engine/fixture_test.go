package engine

// ============================================================================
// TEST FIXTURE — ten deliveries from two seasons
// ============================================================================

func ball(year float64, batter, bowler, style, team string, over, runs, wicket float64) Record {
	return Record{
		Dimensions: map[string]string{
			"batter":        batter,
			"bowler":        bowler,
			"bowling_style": style,
			"batting_team":  team,
		},
		Measures: map[string]float64{
			"year":        year,
			"over":        over,
			"runs_batter": runs,
			"isWicket":    wicket,
		},
	}
}

func fixture() RecordView {
	return NewSliceView([]Record{
		ball(2016, "V Kohli", "JJ Bumrah", "rfm", "RCB", 1, 4, 0),
		ball(2016, "V Kohli", "JJ Bumrah", "rfm", "RCB", 18, 6, 0),
		ball(2016, "V Kohli", "R Ashwin", "ob", "RCB", 10, 1, 0),
		ball(2016, "AB de Villiers", "R Ashwin", "ob", "RCB", 17, 6, 0),
		ball(2016, "AB de Villiers", "JJ Bumrah", "rfm", "RCB", 19, 0, 1),
		ball(2017, "MS Dhoni", "V Kumar", "rm", "CSK", 20, 6, 0),
		ball(2017, "MS Dhoni", "V Kumar", "rm", "CSK", 16, 2, 0),
		ball(2017, "V Kohli", "V Kumar", "rm", "RCB", 3, 0, 1),
		ball(2017, "", "R Ashwin", "ob", "CSK", 8, 0, 0),
		ball(2017, "MS Dhoni", "R Ashwin", "ob", "CSK", 12, 1, 0),
	})
}
