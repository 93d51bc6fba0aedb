package main

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// column describes one table column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

func columns(titles ...string) []column {
	out := make([]column, len(titles))
	for i, title := range titles {
		title, numeric := strings.CutSuffix(title, "#")
		out[i] = column{title: title, numeric: numeric}
	}
	return out
}

// cellWidthLimit wraps long cells such as artifact URLs.
const cellWidthLimit = 60

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable draws rows under cols. Short rows are padded with blanks and
// extra cells are dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, WidthMax: cellWidthLimit}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, values := range rows {
		row := make(table.Row, len(cols))
		for i := range row {
			row[i] = ""
			if i < len(values) {
				row[i] = values[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
