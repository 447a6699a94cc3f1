package engine

import (
	"strconv"
	"strings"
)

// ============================================================================
// FILTERS — Single-pass record filtering via RecordView
// ============================================================================
// Checks every constraint per record in one loop and returns a SubView
// (index list into parent), zero data copy.
// ============================================================================

// ApplyFilters returns a view of records matching all filters.
// Fields are AND-combined; values within a field are OR-combined.
// String comparisons are case-insensitive. Empty filter returns the original view.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	for _, r := range filters.Ranges {
		if r.IsEmpty() {
			return newSubView(view, nil)
		}
	}

	roles := rolesOf(view)
	include := numericKeys(lowerSets(filters.Dimensions), roles)
	exclude := numericKeys(lowerSets(filters.Exclude), roles)
	contains := lowerLists(filters.Contains)

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matches(view, roles, i, filters, include, exclude, contains) {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

func matches(
	view RecordView,
	roles fieldRoles,
	i int,
	filters Filters,
	include, exclude map[string]map[string]bool,
	contains map[string][]string,
) bool {
	for field, set := range include {
		if !set[strings.ToLower(fieldValue(view, roles, i, field))] {
			return false
		}
	}
	for field, set := range exclude {
		if set[strings.ToLower(fieldValue(view, roles, i, field))] {
			return false
		}
	}
	for field, subs := range contains {
		val := strings.ToLower(view.Dimension(i, field))
		hit := false
		for _, s := range subs {
			if strings.Contains(val, s) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for field, r := range filters.Ranges {
		if !r.Contains(view.Measure(i, field)) {
			return false
		}
	}
	for _, field := range filters.NonEmpty {
		if strings.TrimSpace(fieldValue(view, roles, i, field)) == "" {
			return false
		}
	}
	return true
}

// lowerSets converts field → values into field → lowercase lookup set,
// dropping fields with no values.
func lowerSets(m map[string][]string) map[string]map[string]bool {
	sets := make(map[string]map[string]bool)
	for field, vals := range m {
		if len(vals) > 0 {
			sets[field] = toLowerSet(vals)
		}
	}
	return sets
}

// numericKeys rewrites value sets of measure fields so "2024.0" matches 2024.
func numericKeys(sets map[string]map[string]bool, roles fieldRoles) map[string]map[string]bool {
	for field, set := range sets {
		if !roles.isMeasure(field) {
			continue
		}
		normalized := make(map[string]bool, len(set))
		for v := range set {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				v = plainNumber(f)
			} else if b, ok := parseBool(v); ok {
				v = plainNumber(b)
			}
			normalized[v] = true
		}
		sets[field] = normalized
	}
	return sets
}

func lowerLists(m map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for field, vals := range m {
		if len(vals) == 0 {
			continue
		}
		lowered := make([]string, len(vals))
		for i, v := range vals {
			lowered[i] = strings.ToLower(v)
		}
		out[field] = lowered
	}
	return out
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
