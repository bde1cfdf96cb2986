// Package report prints cleaning results and descriptive statistics to the
// console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sheetclean/internal/dataprocessing"
)

// Output formats
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

// SummaryTitle precedes the statistics table
const SummaryTitle = "Basic Descriptive Statistics:"

func newWriter(w io.Writer) table.Writer {
	style := table.StyleLight
	style.Format.Header = text.FormatDefault

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style)
	return t
}

// RenderSummary prints the statistics table: one column per described column
// and one row per statistic.
func RenderSummary(w io.Writer, summary *dataprocessing.Summary, format string) error {
	_, _ = fmt.Fprintln(w, SummaryTitle)

	if summary.Empty() {
		_, _ = fmt.Fprintln(w, "(no columns)")
		return nil
	}

	header, rows := summary.Grid()

	t := newWriter(w)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, 0, len(header)-1)
	for i := 2; i <= len(header); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	return render(t, format)
}

// RenderImputation prints what the imputer did to each column that changed
func RenderImputation(w io.Writer, stats dataprocessing.ImputationStatistics, format string) error {
	t := newWriter(w)
	t.AppendHeader(table.Row{"column", "kind", "coerced", "dropped", "filled", "strategy", "fill value"})

	changed := 0
	for _, c := range stats.Columns {
		if !c.Coerced && c.Filled == 0 {
			continue
		}
		changed++

		kind := string(c.FinalKind)
		if c.OriginalKind != c.FinalKind {
			kind = fmt.Sprintf("%s -> %s", c.OriginalKind, c.FinalKind)
		}
		t.AppendRow(table.Row{
			c.Column,
			kind,
			yesNo(c.Coerced),
			c.CoercedAway,
			c.Filled,
			c.Strategy,
			c.FillValue.String(),
		})
	}

	if changed == 0 {
		_, _ = fmt.Fprintln(w, "No missing values to fill.")
		return nil
	}

	t.AppendFooter(table.Row{"total", "", stats.ColumnsCoerced, stats.CellsCoercedAway, stats.CellsFilled, "", ""})
	return render(t, format)
}

func render(t table.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		t.Render()
	case FormatMarkdown, "md":
		t.RenderMarkdown()
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
