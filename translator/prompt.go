package translator

import (
	"fmt"
	"strings"

	"github.com/spektr-org/iplstats/dataset"
	"github.com/spektr-org/iplstats/schema"
)

// ============================================================================
// PROMPT BUILDER — Schema-Driven AI Prompt Generation
// ============================================================================
// The prompt is generated from schema.Config:
//   - Dataset summary → records, seasons, matches, date range, teams
//   - Dimensions → listed with descriptions and sample values
//   - Measures → listed with units and flags
//   - Rules → cricket conventions (phases, bowling styles, stat formulas)
//   - QuerySpec format + worked examples
//
// Only metadata goes to the model. Never rows.
// ============================================================================

// BuildPrompt generates the complete prompt for one question.
func BuildPrompt(sch schema.Config, summary *dataset.Summary, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	var b strings.Builder

	// ── Header ────────────────────────────────────────────────────────────
	fmt.Fprintf(&b, `You are an expert in IPL cricket analytics and a query translator for %q.

YOUR ROLE:
Translate the user's question into a structured QuerySpec that a computation engine will execute.
You are a TRANSLATOR ONLY. Do NOT compute any values. The engine does all computation locally.

`, sch.Name)

	// ── Data Summary ──────────────────────────────────────────────────────
	if summary != nil {
		b.WriteString("DATABASE INFO:\n")
		b.WriteString(summary.String())
		b.WriteString("\n")
	}

	// ── Schema Description ────────────────────────────────────────────────
	b.WriteString("DATA MODEL (one row per ball bowled):\n")
	b.WriteString(buildDimensionDescription(sch))
	b.WriteString(buildMeasureDescription(sch))
	b.WriteString("\n")

	// ── Cricket Rules ─────────────────────────────────────────────────────
	if len(sch.Rules) > 0 {
		b.WriteString("CRICKET RULES:\n")
		for i, r := range sch.Rules {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
		b.WriteString("\n")
	}

	// ── Response Format ───────────────────────────────────────────────────
	b.WriteString(buildResponseFormat(sch))

	// ── QuerySpec Rules ───────────────────────────────────────────────────
	b.WriteString(buildQuerySpecRules(sch))

	// ── Worked Examples ───────────────────────────────────────────────────
	b.WriteString(buildExampleTranslations(sch))

	// ── Question ──────────────────────────────────────────────────────────
	fmt.Fprintf(&b, "USER QUESTION: %s\n", question)
	if hint := ratioHint(question); hint != "" {
		b.WriteString(hint)
	}
	b.WriteString("\nRespond with valid JSON only:\n")

	return b.String(), nil
}

// ============================================================================
// SECTION BUILDERS
// ============================================================================

func buildDimensionDescription(sch schema.Config) string {
	var b strings.Builder

	b.WriteString("DIMENSIONS (string fields for grouping and filtering):\n")
	for _, d := range sch.Dimensions {
		fmt.Fprintf(&b, "- %q", d.Key)
		if d.DisplayName != "" && d.DisplayName != d.Key {
			fmt.Fprintf(&b, " (%s)", d.DisplayName)
		}
		if d.Description != "" {
			fmt.Fprintf(&b, ": %s", d.Description)
		}
		if len(d.SampleValues) > 0 {
			fmt.Fprintf(&b, "; values like [%s]", strings.Join(quotedValues(d.SampleValues), ", "))
		}
		if d.IsTemporal {
			b.WriteString(" [TEMPORAL]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildMeasureDescription(sch schema.Config) string {
	var b strings.Builder

	b.WriteString("\nMEASURES (numeric fields for aggregation and ranges):\n")
	for _, m := range sch.Measures {
		fmt.Fprintf(&b, "- %q", m.Key)
		if m.DisplayName != "" && m.DisplayName != m.Key {
			fmt.Fprintf(&b, " (%s)", m.DisplayName)
		}
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		switch {
		case m.IsFlag:
			b.WriteString(" [0/1 flag: sum to count occurrences]")
		case m.Unit != "":
			fmt.Fprintf(&b, " [unit: %s]", m.Unit)
		}
		if m.IsTemporal {
			b.WriteString(" [TEMPORAL]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildResponseFormat(sch schema.Config) string {
	return fmt.Sprintf(`RESPONSE FORMAT (ALWAYS valid JSON, no markdown, no SQL):
{
  "interpretation": {
    "summary": "One line describing what will be shown",
    "details": [{"label": "Filter", "value": "death overs, pace bowling"}],
    "confidence": 0.9
  },
  "querySpec": {
    "intent": "text|table",
    "filters": {
      "dimensions": {"<field>": ["value", ...]},
      "exclude": {"<field>": ["value", ...]},
      "contains": {"<dimension>": ["substring", ...]},
      "ranges": {"<measure>": {"min": 0, "max": 0}},
      "nonEmpty": ["<dimension>"]
    },
    "compareFilters": null,
    "aggregation": "sum|count|avg|max|min|list|growth|ratio",
    "measure": "%s",
    "metrics": [
      {"name": "runs", "aggregation": "sum|count|avg|min|max|distinct|rate", "measure": "<measure>", "over": "<measure>", "scale": 0, "hidden": false}
    ],
    "groupBy": [],
    "having": [{"metric": "<metric name>", "op": "gt|gte|lt|lte|eq|ne", "value": 0}],
    "sortBy": "value_desc|value_asc|date_asc|date_desc|alpha_asc",
    "sortMetric": "<metric name>",
    "limit": 10,
    "title": "Table title",
    "reply": "Template with {total}, {count}, {period}, {top_category}, {top_amount}, {avg}, {max}, {min}, {growth_percent}, {direction}, {ratio_percent} placeholders",
    "confidence": 0.9
  }
}

`, sch.GetDefaultMeasure())
}

func buildQuerySpecRules(sch schema.Config) string {
	dimKeys := make([]string, 0, len(sch.Dimensions))
	for _, d := range sch.Dimensions {
		dimKeys = append(dimKeys, fmt.Sprintf("%q", d.Key))
	}

	return fmt.Sprintf(`QUERYSPEC RULES:

1. "filters" select balls. AND across fields, OR within a field.
   - "dimensions": exact values (case-insensitive). Works for flags too: {"isWicket": ["1"]}
   - "contains": substring match on a dimension
   - "ranges": inclusive numeric bounds on a measure, e.g. death overs {"over": {"min": 16}}
   - "nonEmpty": drop rows where the field is blank
   Field names are case-sensitive and must come from the lists above.

2. "groupBy": dimensions or measures to group by: %s
   [] gives a single overall answer.

3. "metrics": named aggregates per group. Use them for anything beyond one total.
   - "sum" of "measure"; "count" counts balls; "distinct" counts unique values of "measure"
   - "rate" is sum(measure) / balls, or sum(measure) / sum(over) when "over" is set, times "scale"
   - "hidden": true computes a metric only for "having" or sorting

4. "having": thresholds on metrics after grouping (minimum balls, runs, wickets).

5. "aggregation": "sum" (default), "count", "avg", "max", "min" for a single metric
   without "metrics"; "list" shows raw balls; "growth" compares earliest and latest
   season; "ratio" is the percentage "compareFilters" (part) makes of "filters" (base).

6. "sortBy" + "sortMetric": rank by a metric. "limit": number of rows (0 = all).

7. Only use fields listed above. Never invent columns.

`, strings.Join(dimKeys, ", "))
}

func buildExampleTranslations(sch schema.Config) string {
	if len(sch.Dimensions) == 0 || len(sch.Measures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("EXAMPLE QUERY TRANSLATIONS:\n")

	if _, ok := sch.Dimension("batter"); ok {
		b.WriteString(`- "top 10 run scorers" → {"filters":{"nonEmpty":["batter"]},"groupBy":["batter"],"metrics":[{"name":"runs","aggregation":"sum","measure":"runs_batter"},{"name":"balls","aggregation":"count"},{"name":"strike_rate","aggregation":"rate","measure":"runs_batter","scale":100}],"sortMetric":"runs","sortBy":"value_desc","limit":10}
`)
		b.WriteString(`- "best batters vs pace in death overs" → {"filters":{"ranges":{"over":{"min":16}},"dimensions":{"bowling_style":["rm","rfm","rmf","lf","lfm","lmf"]},"nonEmpty":["batter"]},"groupBy":["batter"],"metrics":[{"name":"runs","aggregation":"sum","measure":"runs_batter"},{"name":"balls","aggregation":"count"},{"name":"strike_rate","aggregation":"rate","measure":"runs_batter","scale":100}],"having":[{"metric":"balls","op":"gte","value":25}],"sortMetric":"runs","limit":10}
`)
	}
	if _, ok := sch.Dimension("bowler"); ok {
		b.WriteString(`- "top wicket takers" → {"filters":{"nonEmpty":["bowler"]},"groupBy":["bowler"],"metrics":[{"name":"wickets","aggregation":"sum","measure":"isWicket"},{"name":"economy","aggregation":"rate","measure":"runs_total","scale":6},{"name":"balls","aggregation":"count","hidden":true}],"having":[{"metric":"balls","op":"gte","value":50}],"sortMetric":"wickets","limit":10}
`)
	}
	if _, ok := sch.Measure("year"); ok {
		b.WriteString(`- "highest run scorers in 2024" → {"filters":{"dimensions":{"year":["2024"]},"nonEmpty":["batter"]},"groupBy":["batter"],"metrics":[{"name":"runs","aggregation":"sum","measure":"runs_batter"}],"limit":10}
`)
		b.WriteString(`- "have sixes increased over the seasons?" → {"aggregation":"growth","measure":"isSix"}
`)
	}
	b.WriteString(`- "what percentage of runs came in the powerplay?" → {"aggregation":"ratio","measure":"runs_batter","filters":{},"compareFilters":{"ranges":{"over":{"max":6}}}}
`)
	b.WriteString(`- "how many sixes has Kohli hit?" → {"filters":{"dimensions":{"batter":["V Kohli"]}},"aggregation":"sum","measure":"isSix","reply":"V Kohli has hit {total} sixes."}
`)

	b.WriteString("\n")
	return b.String()
}

// ratioHint flags "what share of" questions, which models often answer with a plain sum.
func ratioHint(question string) string {
	lower := strings.ToLower(question)
	for _, kw := range []string{"percentage of", "% of", "how much of", "portion of", "fraction of", "share of"} {
		if strings.Contains(lower, kw) {
			return "HINT: This is a RATIO query. Use aggregation \"ratio\" with BOTH \"filters\" (base) AND \"compareFilters\" (part).\n"
		}
	}
	return ""
}

// ============================================================================
// HELPERS
// ============================================================================

func quotedValues(vals []string) []string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return quoted
}
