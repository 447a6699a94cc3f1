package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/iplstats/engine"
)

// ============================================================================
// RENDER — Turns an engine.Result into text, JSON, CSV or an aligned table
// ============================================================================

// DefaultMaxRows is the number of ranked rows Text prints before truncating.
const DefaultMaxRows = 12

var medals = []string{"🥇", "🥈", "🥉"}

// Text formats a result for a chat reply: scalar answers on one line,
// tables as a ranked list with medals for the first three rows.
func Text(res *engine.Result, maxRows int) string {
	if res == nil {
		return engine.NoDataReply
	}
	if res.Empty {
		if res.Reply != "" {
			return res.Reply
		}
		return engine.NoDataReply
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	switch {
	case res.TableData != nil:
		return rankedList(res, maxRows)
	case res.Data != nil:
		if res.Reply != "" {
			return res.Reply
		}
		return scalarLine(res.Data)
	default:
		return res.Reply
	}
}

func scalarLine(d *engine.TextData) string {
	line := fmt.Sprintf("%s: %s", d.Label, d.Value)
	if d.Period != "" {
		line += fmt.Sprintf(" (%s)", d.Period)
	}
	return line
}

func rankedList(res *engine.Result, maxRows int) string {
	table := res.TableData
	if len(table.Rows) == 0 {
		return engine.NoDataReply
	}

	shown := len(table.Rows)
	if shown > maxRows {
		shown = maxRows
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏏 Top %d Results:\n\n", shown)

	for i, row := range table.Rows[:shown] {
		var names, stats []string
		for j, col := range table.Columns {
			if j >= len(row) {
				break
			}
			if col.Type == "number" {
				stats = append(stats, fmt.Sprintf("%s %s", row[j], strings.ToLower(col.Label)))
			} else {
				names = append(names, row[j])
			}
		}

		b.WriteString(rank(i))
		b.WriteString(" ")
		b.WriteString(strings.Join(names, " / "))
		if len(stats) > 0 {
			b.WriteString(" - ")
			b.WriteString(strings.Join(stats, " | "))
		}
		b.WriteString("\n")
	}

	if more := len(table.Rows) - shown; more > 0 {
		fmt.Fprintf(&b, "\n... and %d more results\n", more)
	}

	if s := table.Summary; s != nil && len(s.Values) > 0 {
		var totals []string
		for _, col := range table.Columns {
			if v, ok := s.Values[col.Key]; ok {
				totals = append(totals, fmt.Sprintf("%s %s", v, strings.ToLower(col.Label)))
			}
		}
		if len(totals) > 0 {
			fmt.Fprintf(&b, "\n%s: %s\n", s.Label, strings.Join(totals, " | "))
		}
	}

	if res.Reply != "" {
		b.WriteString("\n")
		b.WriteString(res.Reply)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func rank(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%2d.", i+1)
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

// CSV writes table results as header + rows, scalar results as a
// label/value/period row, and empty results as a single "No data" row.
func CSV(w io.Writer, res *engine.Result) error {
	cw := csv.NewWriter(w)

	switch {
	case res == nil || res.Empty:
		_ = cw.Write([]string{"Result", "No data"})
	case res.TableData != nil:
		_ = cw.Write(headers(res.TableData))
		for _, row := range res.TableData.Rows {
			_ = cw.Write(row)
		}
	case res.Data != nil:
		_ = cw.Write([]string{"Label", "Value", "Period"})
		_ = cw.Write([]string{res.Data.Label, res.Data.Value, res.Data.Period})
	default:
		_ = cw.Write([]string{"Summary"})
		_ = cw.Write([]string{res.Reply})
	}

	cw.Flush()
	return cw.Error()
}

func headers(t *engine.TableData) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// ============================================================================
// TABLE OUTPUT
// ============================================================================

// Table writes an aligned plain-text table. Scalar and empty results fall
// back to Text.
func Table(w io.Writer, res *engine.Result) error {
	if res == nil || res.Empty || res.TableData == nil {
		_, err := fmt.Fprintln(w, Text(res, 0))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers(res.TableData), "\t"))
	for _, row := range res.TableData.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if s := res.TableData.Summary; s != nil && len(s.Values) > 0 {
		cells := make([]string, len(res.TableData.Columns))
		for i, c := range res.TableData.Columns {
			cells[i] = s.Values[c.Key]
		}
		cells[0] = s.Label
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
