package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ============================================================================
// CSV SOURCE — Parses CSV exports into a Table
// ============================================================================
// Column roles are inferred from content: a column whose non-empty values all
// parse as numbers or booleans is a measure, everything else is a dimension.
// Header names are kept as-is (case-sensitive, e.g. "isWicket").
// ============================================================================

// ReadCSV parses CSV data into a Table, reading at most maxRows data rows
// (0 = all).
func ReadCSV(r io.Reader, maxRows int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	// Read rows
	var rows [][]string
	for maxRows <= 0 || len(rows) < maxRows {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	cols := make([]column, len(headers))
	for i, h := range headers {
		cols[i] = column{name: h, measure: isNumericColumn(rows, i)}
	}

	tb := newTableBuilder(cols)
	for _, row := range rows {
		for i, c := range cols {
			val := ""
			if i < len(row) {
				val = strings.TrimSpace(row[i])
			}
			if !c.measure {
				tb.appendString(i, val, true)
				continue
			}
			f, ok := parseMeasure(val)
			tb.appendFloat(i, f, ok)
		}
		tb.endRow()
	}
	return tb.finish(), nil
}

// isNumericColumn reports whether every non-empty value in column i is numeric.
func isNumericColumn(rows [][]string, i int) bool {
	seen := false
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[i])
		if val == "" {
			continue
		}
		if _, ok := parseMeasure(val); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// parseMeasure converts numeric and boolean spellings to float64.
// Booleans become 0/1.
func parseMeasure(val string) (float64, bool) {
	if val == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f, true
	}
	switch strings.ToLower(val) {
	case "true", "t":
		return 1, true
	case "false", "f":
		return 0, true
	}
	return 0, false
}
