package main

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var titleCaser = cases.Title(language.Und)

// renderCountTable renders a two-column category/count table. Category labels
// are title-cased; counts are right-aligned.
func renderCountTable(title string, rows [][2]string) string {
	return renderPairTable(title, "Count", rows, true)
}

// renderValueTable renders a two-column label/value table with left-aligned
// values, for paths and similar free-form text.
func renderValueTable(title string, rows [][2]string) string {
	return renderPairTable(title, "Value", rows, false)
}

func renderPairTable(title, valueHeader string, rows [][2]string, alignValuesRight bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Category", valueHeader})
	for _, row := range rows {
		tw.AppendRow(table.Row{titleCaser.String(row[0]), row[1]})
	}
	valueAlign := text.AlignLeft
	if alignValuesRight {
		valueAlign = text.AlignRight
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: valueAlign, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderPathList renders a single-column table of file paths.
func renderPathList(title string, paths []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Path"})
	for _, path := range paths {
		tw.AppendRow(table.Row{path})
	}
	return tw.Render()
}
