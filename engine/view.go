package engine

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns the dataset. It reads through this interface.
//
// Implementations:
//   SliceView     : wraps []Record (fixtures, ad-hoc data)
//   SubView       : filtered subset (indices into parent, zero-copy)
//   ConcatView    : virtual concatenation of two views
//   dataset.Table : Arrow-backed columnar table loaded at startup
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView creates a RecordView from a []Record slice.
// Keys are reported in first-seen order of sorted record keys.
func NewSliceView(records []Record) RecordView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

func (v *SliceView) cacheKeys() {
	dimSeen := make(map[string]bool)
	mesSeen := make(map[string]bool)
	for _, r := range v.records {
		for _, k := range sortedKeys(r.Dimensions) {
			if !dimSeen[k] {
				dimSeen[k] = true
				v.dimKeys = append(v.dimKeys, k)
			}
		}
		for _, k := range sortedKeys(r.Measures) {
			if !mesSeen[k] {
				mesSeen[k] = true
				v.mesKeys = append(v.mesKeys, k)
			}
		}
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent; no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	// Flatten nested sub-views so lookups stay one hop deep.
	if sv, ok := parent.(*SubView); ok {
		flat := make([]int, len(indices))
		for i, idx := range indices {
			flat[i] = sv.indices[idx]
		}
		return &SubView{parent: sv.parent, indices: flat}
	}
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// CONCAT VIEW — virtual concatenation of two views
// ============================================================================

// ConcatView logically concatenates two RecordViews.
// Used for ratio period derivation without data copy.
type ConcatView struct {
	a, b RecordView
}

func newConcatView(a, b RecordView) RecordView {
	return &ConcatView{a: a, b: b}
}

func (v *ConcatView) Len() int { return v.a.Len() + v.b.Len() }

func (v *ConcatView) Dimension(i int, key string) string {
	if i < v.a.Len() {
		return v.a.Dimension(i, key)
	}
	return v.b.Dimension(i-v.a.Len(), key)
}

func (v *ConcatView) Measure(i int, key string) float64 {
	if i < v.a.Len() {
		return v.a.Measure(i, key)
	}
	return v.b.Measure(i-v.a.Len(), key)
}

func (v *ConcatView) DimensionKeys() []string { return v.a.DimensionKeys() }
func (v *ConcatView) MeasureKeys() []string   { return v.a.MeasureKeys() }

// ============================================================================
// FIELD ROLES
// ============================================================================

type role int

const (
	roleNone role = iota
	roleDimension
	roleMeasure
)

// fieldRoles indexes a view's keys by role.
type fieldRoles map[string]role

func rolesOf(view RecordView) fieldRoles {
	roles := make(fieldRoles, len(view.DimensionKeys())+len(view.MeasureKeys()))
	for _, k := range view.MeasureKeys() {
		roles[k] = roleMeasure
	}
	for _, k := range view.DimensionKeys() {
		roles[k] = roleDimension
	}
	return roles
}

func (r fieldRoles) isDimension(key string) bool { return r[key] == roleDimension }
func (r fieldRoles) isMeasure(key string) bool   { return r[key] == roleMeasure }
func (r fieldRoles) has(key string) bool         { return r[key] != roleNone }

// fieldValue returns a field as a string regardless of its role.
// Measures are rendered the way FormatNumber would print them without grouping.
func fieldValue(view RecordView, roles fieldRoles, i int, key string) string {
	if roles.isMeasure(key) {
		return plainNumber(view.Measure(i, key))
	}
	return view.Dimension(i, key)
}
