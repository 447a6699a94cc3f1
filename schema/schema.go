package schema

// ============================================================================
// SCHEMA — Describes the shape of a dataset for the engine + AI translator
// ============================================================================
// Discovered from the loaded table and merged with a column catalog that
// carries descriptions and units. The translator uses schema metadata to
// build prompts; the CLI and HTTP server expose it as JSON.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Table       string `json:"table,omitempty" yaml:"table,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`

	// Domain rules rendered verbatim into the prompt.
	Rules []string `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Auto-discovery metadata
	DiscoveredAt string `json:"discoveredAt,omitempty" yaml:"-"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"-"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key             string   `json:"key" yaml:"key"`
	DisplayName     string   `json:"displayName" yaml:"displayName,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	SampleValues    []string `json:"sampleValues" yaml:"sampleValues,omitempty"`
	IsTemporal      bool     `json:"isTemporal,omitempty" yaml:"isTemporal,omitempty"`
	TemporalFormat  string   `json:"temporalFormat,omitempty" yaml:"temporalFormat,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty" yaml:"-"` // "low", "medium", "high"
	DerivedFrom     string   `json:"derivedFrom,omitempty" yaml:"derivedFrom,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key" yaml:"key"`
	DisplayName        string   `json:"displayName" yaml:"displayName,omitempty"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Unit               string   `json:"unit,omitempty" yaml:"unit,omitempty"` // "runs", "balls", "flag", "id"
	IsFlag             bool     `json:"isFlag,omitempty" yaml:"isFlag,omitempty"`
	IsTemporal         bool     `json:"isTemporal,omitempty" yaml:"isTemporal,omitempty"`
	Aggregations       []string `json:"aggregations,omitempty" yaml:"aggregations,omitempty"`
	DefaultAggregation string   `json:"defaultAggregation,omitempty" yaml:"defaultAggregation,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName string) MeasureMeta {
	return MeasureMeta{
		Key:                key,
		DisplayName:        displayName,
		Aggregations:       []string{"sum", "avg", "min", "max", "count"},
		DefaultAggregation: "sum",
	}
}

// GetDefaultMeasure returns "runs_batter" when present, else the first
// non-identifier measure.
func (c Config) GetDefaultMeasure() string {
	for _, m := range c.Measures {
		if m.Key == "runs_batter" {
			return m.Key
		}
	}
	for _, m := range c.Measures {
		if m.Unit != "id" && !m.IsTemporal {
			return m.Key
		}
	}
	return "runs_batter"
}

// TemporalField returns the field used for period labels: the first temporal
// measure (e.g. "year"), then the first temporal dimension.
func (c Config) TemporalField() string {
	for _, m := range c.Measures {
		if m.IsTemporal {
			return m.Key
		}
	}
	for _, d := range c.Dimensions {
		if d.IsTemporal {
			return d.Key
		}
	}
	return "year"
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}
