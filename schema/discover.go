package schema

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/iplstats/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Schema from a loaded RecordView
// ============================================================================
// The dataset loader already decided each column's role. Discovery inspects
// the values to add what the prompt needs:
//   1. Sample values and a cardinality hint per dimension
//   2. Temporal detection (dates, seasons, years)
//   3. Flag detection for 0/1 measures
//   4. Catalog merge: descriptions, units and rules for known columns
// Columns that are empty in every sampled row are skipped.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 5000
	MaxSamples int    // Sample values per dimension. Default: 8
	Name       string // Dataset name override (otherwise from catalog)
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 5000,
		MaxSamples: 8,
	}
}

// Discover builds a Config for view, enriched with catalog metadata.
// Catalog entries for columns the view does not have are dropped.
func Discover(view engine.RecordView, catalog Config, opts ...DiscoverOptions) *Config {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.MaxSamples <= 0 {
			opt.MaxSamples = DefaultDiscoverOptions().MaxSamples
		}
	}

	rows := view.Len()
	if opt.SampleSize > 0 && rows > opt.SampleSize {
		rows = opt.SampleSize
	}

	config := &Config{
		Name:         catalog.Name,
		Version:      catalog.Version,
		Description:  catalog.Description,
		Table:        catalog.Table,
		Rules:        catalog.Rules,
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if opt.Name != "" {
		config.Name = opt.Name
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	for _, key := range view.DimensionKeys() {
		col := analyzeDimension(view, key, rows)
		if col.empty {
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{Column: key, Reason: "All sampled values are empty"})
			continue
		}
		dim := DefaultDimension(key, toDisplayName(key), collectSamples(col.unique, opt.MaxSamples))
		dim.CardinalityHint = cardinality(len(col.unique))
		dim.IsTemporal, dim.TemporalFormat = detectTemporalPattern(dim.SampleValues)
		if meta, ok := catalog.Dimension(key); ok {
			mergeDimension(&dim, meta)
		}
		config.Dimensions = append(config.Dimensions, dim)
	}

	for _, key := range view.MeasureKeys() {
		m := DefaultMeasure(key, toDisplayName(key))
		if isFlagColumn(view, key, rows) {
			m.IsFlag = true
			m.Unit = "flag"
		}
		if meta, ok := catalog.Measure(key); ok {
			mergeMeasure(&m, meta)
		}
		config.Measures = append(config.Measures, m)
	}

	return config
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type dimensionAnalysis struct {
	unique map[string]bool
	empty  bool
}

func analyzeDimension(view engine.RecordView, key string, rows int) dimensionAnalysis {
	col := dimensionAnalysis{unique: make(map[string]bool)}
	for i := 0; i < rows; i++ {
		val := strings.TrimSpace(view.Dimension(i, key))
		if val == "" || val == "null" || val == "NULL" || val == "N/A" {
			continue
		}
		col.unique[val] = true
	}
	col.empty = len(col.unique) == 0
	return col
}

// isFlagColumn reports whether every sampled value is 0 or 1.
func isFlagColumn(view engine.RecordView, key string, rows int) bool {
	if rows == 0 {
		return false
	}
	for i := 0; i < rows; i++ {
		v := view.Measure(i, key)
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

func cardinality(unique int) string {
	switch {
	case unique <= 10:
		return "low"
	case unique <= 100:
		return "medium"
	default:
		return "high"
	}
}

// ============================================================================
// CATALOG MERGE
// ============================================================================

func mergeDimension(dim *DimensionMeta, meta DimensionMeta) {
	if meta.DisplayName != "" {
		dim.DisplayName = meta.DisplayName
	}
	if meta.Description != "" {
		dim.Description = meta.Description
	}
	if meta.IsTemporal {
		dim.IsTemporal = true
	}
	if meta.TemporalFormat != "" {
		dim.TemporalFormat = meta.TemporalFormat
	}
	if meta.DerivedFrom != "" {
		dim.DerivedFrom = meta.DerivedFrom
	}
	if len(meta.SampleValues) > 0 {
		dim.SampleValues = meta.SampleValues
	}
}

func mergeMeasure(m *MeasureMeta, meta MeasureMeta) {
	if meta.DisplayName != "" {
		m.DisplayName = meta.DisplayName
	}
	if meta.Description != "" {
		m.Description = meta.Description
	}
	if meta.Unit != "" {
		m.Unit = meta.Unit
	}
	if meta.IsFlag {
		m.IsFlag = true
	}
	if meta.IsTemporal {
		m.IsTemporal = true
	}
	if len(meta.Aggregations) > 0 {
		m.Aggregations = meta.Aggregations
	}
	if meta.DefaultAggregation != "" {
		m.DefaultAggregation = meta.DefaultAggregation
	}
}

// ============================================================================
// PATTERN DETECTION
// ============================================================================

var temporalPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "yyyy-MM-dd"},  // 2016-04-09
	{regexp.MustCompile(`^\d{4}/\d{2}$`), "yyyy/yy"},           // 2007/08
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},           // 2016-04
	{regexp.MustCompile(`^\d{4}$`), "yyyy"},                    // 2016
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"}, // Apr-2016
}

// detectTemporalPattern checks if values match known date/season/year patterns.
// Mixed season spellings ("2007/08" and "2016") count as one pattern family.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	best, bestFormat := 0, ""
	total := 0
	for _, pattern := range temporalPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		total += matches
		if matches > best {
			best, bestFormat = matches, pattern.format
		}
	}
	if float64(total)/float64(len(samples)) >= 0.8 {
		return true, bestFormat
	}
	return false, ""
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a column key for human display.
// "runs_batter" → "Runs Batter", "isWicket" → "Is Wicket"
func toDisplayName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && s[i-1] >= 'a' && s[i-1] <= 'z' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(b.String())

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
