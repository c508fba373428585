// ABOUTME: Table rendering of match reports with go-pretty.
// ABOUTME: One row per selected match; unmatched units get empty match columns.
package report

import (
	"fmt"
	"io"

	"github.com/2389-research/ctlmatch/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tablePreviewLen keeps table cells narrow enough for a terminal.
const tablePreviewLen = 60

var tableHeader = table.Row{"Merge Control", "Merge Part", "Text", "Score", "Base Control", "Base Part"}

// renderTable writes one row per (merge unit, match) pair; units without
// matches get a single row with empty match columns.
func renderTable(w io.Writer, r *models.Report) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s vs %s (top %d, threshold %.2f)", r.MergeName, r.BaseName, r.TopK, r.Threshold))
	tw.AppendHeader(tableHeader)

	for _, e := range r.Entries {
		unit := table.Row{e.Unit.ParentControl.DisplayID(), e.Unit.DisplayID(), shorten(e.Unit.Text)}
		if !e.HasMatches() {
			tw.AppendRow(append(unit, "", "", ""))
			continue
		}
		for _, m := range e.Matches {
			row := append(table.Row{}, unit...)
			tw.AppendRow(append(row, fmt.Sprintf("%.2f", m.Score), m.Base.ParentControl.DisplayID(), m.Base.DisplayID()))
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: tablePreviewLen},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d of %d units matched", r.MatchedCount(), len(r.Entries))})

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}

func shorten(s string) string {
	runes := []rune(s)
	if len(runes) <= tablePreviewLen {
		return s
	}
	return string(runes[:tablePreviewLen-3]) + "..."
}
