package engine

// ============================================================================
// ENGINE TYPES — Allow-listed query AST for ball-by-ball analytics
// ============================================================================
// The translator (LLM) produces a QuerySpec; the engine evaluates it locally.
// A QuerySpec can only express filter / group / aggregate / having / sort /
// limit primitives. Nothing in it is ever executed as code.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
//	Record{Dimensions["batter"]="V Kohli", Measures["runs_batter"]=4}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// QUERYSPEC — Contract between translator and engine
// ============================================================================

// QuerySpec defines what the engine should compute.
type QuerySpec struct {
	Intent         string      `json:"intent"`                   // "text", "table"
	Filters        Filters     `json:"filters"`                  // Which records to include
	CompareFilters *Filters    `json:"compareFilters,omitempty"` // For ratio: numerator filters
	Aggregation    string      `json:"aggregation"`              // "sum", "count", "avg", "max", "min", "list", "growth", "ratio", "none"
	Measure        string      `json:"measure"`                  // Primary measure (empty → default)
	Metrics        []Metric    `json:"metrics,omitempty"`        // Named aggregates per group
	GroupBy        []string    `json:"groupBy"`                  // ["batter"], ["bowler", "year"]
	Having         []Condition `json:"having,omitempty"`         // Post-aggregation thresholds
	SortBy         string      `json:"sortBy"`                   // "value_desc", "value_asc", "date_asc", "date_desc", "alpha_asc"
	SortMetric     string      `json:"sortMetric,omitempty"`     // Metric name to sort by (empty → first metric)
	Limit          int         `json:"limit"`                    // 0 = all
	Title          string      `json:"title"`
	Reply          string      `json:"reply"` // Template: "{top_category} leads with {top_amount} runs."
	Confidence     float64     `json:"confidence"`
}

// Metric is one named aggregate computed per group.
//
//	{"name":"strike_rate","aggregation":"rate","measure":"runs_batter","scale":100}
//
// "rate" divides sum(measure) by the row count, or by sum(over) when Over is set.
type Metric struct {
	Name        string  `json:"name"`
	Aggregation string  `json:"aggregation"` // "sum", "count", "avg", "min", "max", "distinct", "rate"
	Measure     string  `json:"measure,omitempty"`
	Over        string  `json:"over,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"` // computed for having/sort only
}

// Condition filters groups after aggregation (SQL HAVING).
type Condition struct {
	Metric string  `json:"metric"`
	Op     string  `json:"op"` // "gt", "gte", "lt", "lte", "eq", "ne"
	Value  float64 `json:"value"`
}

// Filters define which records to include.
// Dimensions: OR within a field, AND across fields. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions,omitempty"` // field IN (...)
	Exclude    map[string][]string `json:"exclude,omitempty"`    // field NOT IN (...)
	Contains   map[string][]string `json:"contains,omitempty"`   // field LIKE '%x%' OR ...
	Ranges     map[string]Range    `json:"ranges,omitempty"`     // min <= measure <= max
	NonEmpty   []string            `json:"nonEmpty,omitempty"`   // field != ''
}

// Range bounds a measure. Nil bounds are open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// IsEmpty reports whether no value can satisfy the range (min > max).
func (r Range) IsEmpty() bool {
	return r.Min != nil && r.Max != nil && *r.Min > *r.Max
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(field string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[field]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	return !anyValues(f.Dimensions) && !anyValues(f.Exclude) && !anyValues(f.Contains) &&
		len(f.Ranges) == 0 && len(f.NonEmpty) == 0
}

func anyValues(m map[string][]string) bool {
	for _, vals := range m {
		if len(vals) > 0 {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for building Range literals.
func Float(v float64) *float64 { return &v }

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "table", "text"
	Empty   bool   `json:"empty"`
	Reply   string `json:"reply"`
	Title   string `json:"title"`

	// Exactly one of these is populated based on Type:
	TableData *TableData `json:"tableData,omitempty"`
	Data      *TextData  `json:"data,omitempty"`

	QuerySpec *QuerySpec `json:"querySpec,omitempty"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
type Group struct {
	Key     string             `json:"key"`
	Keys    []string           `json:"keys,omitempty"` // one value per groupBy field
	Label   string             `json:"label"`
	Value   float64            `json:"value"` // sort metric value
	Count   int                `json:"count"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	View    RecordView         `json:"-"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values,omitempty"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is structured data for scalar answers (type="text").
type TextData struct {
	Label    string      `json:"label"`
	Value    string      `json:"value"`
	RawValue float64     `json:"rawValue"`
	Period   string      `json:"period"`
	Count    int         `json:"count"`
	Growth   *GrowthData `json:"growth,omitempty"`
	Ratio    *RatioData  `json:"ratio,omitempty"`
}

// GrowthData contains change-over-time metrics.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue"`
	LatestValue    float64 `json:"latestValue"`
	EarliestPeriod string  `json:"earliestPeriod"`
	LatestPeriod   string  `json:"latestPeriod"`
	ChangeAmount   float64 `json:"changeAmount"`
	ChangePercent  float64 `json:"changePercent"`
	Direction      string  `json:"direction"` // "increased", "decreased", "unchanged", "insufficient data"
}

// RatioData contains a subset-vs-base percentage comparison.
type RatioData struct {
	NumeratorTotal   float64 `json:"numeratorTotal"`
	DenominatorTotal float64 `json:"denominatorTotal"`
	Percentage       float64 `json:"percentage"`
	NumeratorLabel   string  `json:"numeratorLabel"`
	DenominatorLabel string  `json:"denominatorLabel"`
}

// ============================================================================
// INTERPRETATION
// ============================================================================

// Interpretation describes what the model understood from the question.
type Interpretation struct {
	Summary    string            `json:"summary"`
	Details    []InterpretDetail `json:"details,omitempty"`
	Confidence float64           `json:"confidence"`
}

// InterpretDetail is a label-value pair.
type InterpretDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
