package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, n := range widths {
		seps[i] = strings.Repeat("-", n)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// tabular is implemented by results that have a table rendering.
type tabular interface {
	table() (headers []string, rows [][]string)
}

// output renders v according to --format. quiet prints one line per
// identifier in quietVals.
func output(w io.Writer, v any, quietVals ...string) error {
	switch flagFmt {
	case "quiet":
		for _, q := range quietVals {
			fmt.Fprintln(w, q)
		}
		return nil
	case "table":
		if t, ok := v.(tabular); ok {
			h, rows := t.table()
			formatTable(w, h, rows)
			return nil
		}
		return formatJSON(w, v)
	case "json", "":
		return formatJSON(w, v)
	default:
		return fmt.Errorf("unknown format %q (want json, table or quiet)", flagFmt)
	}
}
