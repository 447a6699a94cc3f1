package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	DefaultMeasure    string // measure key if QuerySpec.Measure is empty
	TemporalDimension string // field used for periods and growth
	MaxListRows       int    // cap on "list" tables without an explicit limit
}

// WithDefaultMeasure sets the measure to aggregate when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		c.DefaultMeasure = measure
	}
}

// WithTemporalDimension sets the field used for period labels and growth,
// e.g. "year" or "season".
func WithTemporalDimension(field string) Option {
	return func(c *config) {
		c.TemporalDimension = field
	}
}

// WithMaxListRows caps the number of raw rows a "list" query returns.
func WithMaxListRows(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.MaxListRows = n
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		DefaultMeasure:    "runs_batter",
		TemporalDimension: "year",
		MaxListRows:       100,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
