package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// TABLE — Arrow-backed columnar RecordView
// ============================================================================
// The dataset is loaded once into a single Arrow record: string columns for
// dimensions, float64 columns for measures. Table implements
// engine.RecordView directly on top of the column arrays, so the engine never
// copies rows out of Arrow memory.
// ============================================================================

// PhaseField is the derived dimension bucketing "over" into match phases.
const PhaseField = "phase"

// Table is an immutable in-memory dataset.
// It is safe for concurrent readers.
type Table struct {
	rec      arrow.Record
	dims     map[string]*array.String
	measures map[string]*array.Float64
	dimKeys  []string
	mesKeys  []string
}

func newTable(rec arrow.Record) *Table {
	t := &Table{
		rec:      rec,
		dims:     make(map[string]*array.String),
		measures: make(map[string]*array.Float64),
	}
	for i, f := range rec.Schema().Fields() {
		switch col := rec.Column(i).(type) {
		case *array.String:
			t.dims[f.Name] = col
			t.dimKeys = append(t.dimKeys, f.Name)
		case *array.Float64:
			t.measures[f.Name] = col
			t.mesKeys = append(t.mesKeys, f.Name)
		}
	}
	return t
}

func (t *Table) Len() int { return int(t.rec.NumRows()) }

func (t *Table) Dimension(i int, key string) string {
	col, ok := t.dims[key]
	if !ok || i < 0 || i >= col.Len() || col.IsNull(i) {
		return ""
	}
	return col.Value(i)
}

func (t *Table) Measure(i int, key string) float64 {
	col, ok := t.measures[key]
	if !ok || i < 0 || i >= col.Len() || col.IsNull(i) {
		return 0
	}
	return col.Value(i)
}

func (t *Table) DimensionKeys() []string { return t.dimKeys }
func (t *Table) MeasureKeys() []string   { return t.mesKeys }

// Schema returns the Arrow schema of the underlying record.
func (t *Table) Schema() *arrow.Schema { return t.rec.Schema() }

// Release frees the Arrow buffers. The table must not be used afterwards.
func (t *Table) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

// ============================================================================
// BUILDER — row-wise appends into Arrow column builders
// ============================================================================

// column describes one source column and its role.
type column struct {
	name    string
	measure bool
}

type tableBuilder struct {
	b        *array.RecordBuilder
	cols     []column
	overIdx  int
	phaseIdx int
	over     float64
	hasOver  bool
}

func newTableBuilder(cols []column) *tableBuilder {
	tb := &tableBuilder{cols: cols, overIdx: -1, phaseIdx: -1}

	fields := make([]arrow.Field, 0, len(cols)+1)
	seenPhase := false
	for i, c := range cols {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if c.measure {
			typ = arrow.PrimitiveTypes.Float64
		}
		fields = append(fields, arrow.Field{Name: c.name, Type: typ, Nullable: true})
		if c.name == "over" && c.measure {
			tb.overIdx = i
		}
		if c.name == PhaseField {
			seenPhase = true
		}
	}
	if tb.overIdx >= 0 && !seenPhase {
		tb.phaseIdx = len(fields)
		fields = append(fields, arrow.Field{Name: PhaseField, Type: arrow.BinaryTypes.String, Nullable: true})
	}

	tb.b = array.NewRecordBuilder(memory.NewGoAllocator(), arrow.NewSchema(fields, nil))
	return tb
}

func (tb *tableBuilder) appendString(i int, v string, valid bool) {
	sb := tb.b.Field(i).(*array.StringBuilder)
	if !valid {
		sb.AppendNull()
		return
	}
	sb.Append(v)
}

func (tb *tableBuilder) appendFloat(i int, v float64, valid bool) {
	fb := tb.b.Field(i).(*array.Float64Builder)
	if !valid {
		fb.AppendNull()
	} else {
		fb.Append(v)
	}
	if i == tb.overIdx {
		tb.over, tb.hasOver = v, valid
	}
}

// endRow completes derived columns for the current row.
func (tb *tableBuilder) endRow() {
	if tb.phaseIdx < 0 {
		return
	}
	tb.appendString(tb.phaseIdx, Phase(tb.over), tb.hasOver)
	tb.hasOver = false
}

func (tb *tableBuilder) finish() *Table {
	defer tb.b.Release()
	return newTable(tb.b.NewRecord())
}

// Phase buckets an over number into powerplay (1-6), middle (7-15) or death (16+).
func Phase(over float64) string {
	switch {
	case over <= 6:
		return "powerplay"
	case over <= 15:
		return "middle"
	default:
		return "death"
	}
}
