package translator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spektr-org/iplstats/engine"
	"github.com/spektr-org/iplstats/schema"
)

// ============================================================================
// RESPONSE PARSER — Extracts a QuerySpec from a model completion
// ============================================================================
// Accepted shapes, in order:
//   1. {"querySpec": {...}, "interpretation": {...}}
//   2. a bare QuerySpec object
//   3. a single SELECT statement (lowered by SQLToQuerySpec)
// Code fences are stripped first. Anything else is ErrMalformedResponse.
// ============================================================================

var (
	fencePattern     = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")
	statementPattern = regexp.MustCompile(`(?im)^\s*(select|with|insert|update|delete|drop|create|alter|truncate|grant|revoke|replace|merge|copy|call)\b`)
	selectPattern    = regexp.MustCompile(`(?i)\bselect\b`)
)

// querySpecKeys are the top-level keys that identify a bare QuerySpec object.
var querySpecKeys = []string{"intent", "filters", "aggregation", "measure", "metrics", "groupBy"}

// ParseCompletion extracts a TranslateResult from a raw model completion.
func ParseCompletion(completion string, sch schema.Config) (*TranslateResult, error) {
	raw := stripFences(completion)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}

	var jsonErr error
	if obj, ok := extractJSONObject(raw); ok {
		result, err := parseJSON(obj)
		if err == nil {
			result.Raw = raw
			return result, nil
		}
		jsonErr = err
	}

	stmt, ok := extractStatement(raw)
	if !ok {
		if jsonErr != nil {
			return nil, jsonErr
		}
		return nil, fmt.Errorf("%w: no query in %q", ErrMalformedResponse, truncate(raw, 120))
	}

	spec, err := SQLToQuerySpec(stmt, sch)
	if err != nil {
		return nil, err
	}
	return &TranslateResult{
		QuerySpec: spec,
		Interpretation: engine.Interpretation{
			Summary:    "Answer computed from the model's SQL query",
			Details:    []engine.InterpretDetail{{Label: "SQL", Value: truncate(stmt, 200)}},
			Confidence: spec.Confidence,
		},
		Raw: raw,
		SQL: stmt,
	}, nil
}

// stripFences returns the content of the first ``` block, or the trimmed text.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// extractStatement finds a SQL statement that starts a line, else any SELECT.
func extractStatement(s string) (string, bool) {
	loc := statementPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		loc = selectPattern.FindStringIndex(s)
		if loc == nil {
			return "", false
		}
		return strings.TrimSpace(s[loc[0]:]), true
	}
	return strings.TrimSpace(s[loc[2]:]), true
}

func parseJSON(obj string) (*TranslateResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %.200s)", ErrMalformedResponse, err, obj)
	}

	var result TranslateResult
	switch {
	case probe["querySpec"] != nil:
		if err := json.Unmarshal([]byte(obj), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	case hasAnyKey(probe, querySpecKeys):
		if err := json.Unmarshal([]byte(obj), &result.QuerySpec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	default:
		return nil, fmt.Errorf("%w: JSON has no querySpec", ErrMalformedResponse)
	}

	// Sync confidence
	if result.QuerySpec.Confidence == 0 && result.Interpretation.Confidence > 0 {
		result.QuerySpec.Confidence = result.Interpretation.Confidence
	}
	if result.Interpretation.Confidence == 0 {
		result.Interpretation.Confidence = result.QuerySpec.Confidence
	}
	return &result, nil
}

func hasAnyKey(m map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
