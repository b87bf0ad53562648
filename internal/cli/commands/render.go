package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlerm/internal/config"
)

func renderResults(w io.Writer, cols []string, results []map[string]any, format string) error {
	switch format {
	case config.OutputJSON:
		return renderJSON(w, results)
	case config.OutputCSV:
		return renderCSV(w, cols, results)
	case config.OutputMarkdown:
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

func renderTable(w io.Writer, cols []string, results []map[string]any) error {
	t, ok := newResultWriter(w, cols, results)
	if !ok {
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

// newResultWriter loads header and rows into a go-pretty writer mirrored to
// w. It prints "(0 rows)" and reports false when there is nothing to render.
func newResultWriter(w io.Writer, cols []string, results []map[string]any) (table.Writer, bool) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil, false
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(toRow(cols, func(col string) any { return col }))
	for _, result := range results {
		t.AppendRow(toRow(cols, func(col string) any { return formatValue(result[col]) }))
	}
	return t, true
}

func toRow(cols []string, cell func(col string) any) table.Row {
	row := make(table.Row, len(cols))
	for i, col := range cols {
		row[i] = cell(col)
	}
	return row
}

func renderJSON(w io.Writer, results []map[string]any) error {
	if results == nil {
		results = []map[string]any{}
	}
	for _, row := range results {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = formatValue(b)
			}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, results []map[string]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(result[col])
		}
		if err := cw.Write(values); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, cols []string, results []map[string]any) error {
	if t, ok := newResultWriter(w, cols, results); ok {
		t.RenderMarkdown()
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
