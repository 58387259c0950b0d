package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable lays rows out under header. Columns listed in numeric are
// right aligned; short rows are padded.
func renderTable(header []string, rows [][]string, numeric ...string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(header))
	for _, r := range rows {
		tw.AppendRow(tableRow(r))
	}

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, name := range numeric {
		configs = append(configs, table.ColumnConfig{Name: name, Align: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func tableRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
