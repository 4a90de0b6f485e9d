package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"expensetracker/internal/core"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// emptyMessage matches the page placeholder.
const emptyMessage = "No expenses found."

// PrintExpenses renders records as a table with a total footer, or as a JSON
// array.
func PrintExpenses(w io.Writer, records []core.Expense, cur core.Currency, format string) error {
	if format == FormatJSON {
		return writeJSON(w, records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, emptyMessage)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Date", "Title", "Category", "Amount"})
	for _, e := range records {
		t.AppendRow(table.Row{e.ID, e.Date, e.Title, string(e.Category), cur.FormatText(e.Amount)})
	}

	sum := core.Summarize(records)
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", "", text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(sum.Total))})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
	return nil
}

// PrintExpense renders a single record.
func PrintExpense(w io.Writer, e core.Expense, cur core.Currency, format string) error {
	if format == FormatJSON {
		return writeJSON(w, e)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRows([]table.Row{
		{"ID", e.ID},
		{"Title", e.Title},
		{"Amount", cur.FormatText(e.Amount)},
		{"Category", string(e.Category)},
		{"Date", e.Date},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// PrintSummary renders per-category totals.
func PrintSummary(w io.Writer, s core.Summary, cur core.Currency, format string) error {
	if format == FormatJSON {
		return writeJSON(w, s)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Category", "Count", "Total"})
	for _, c := range s.ByCategory {
		t.AppendRow(table.Row{string(c.Category), c.Count, cur.Format(c.Total)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("All"), s.Count, text.Bold.Sprint(cur.Format(s.Total))})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()

	if s.Skipped > 0 {
		_, err := fmt.Fprintf(w, "%d expense(s) with unreadable amounts left out of the totals\n", s.Skipped)
		return err
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
