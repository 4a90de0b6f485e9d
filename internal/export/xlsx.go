// Package export writes and reads expense spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/core"
)

// SheetName is the worksheet holding the records.
const SheetName = "Expenses"

// TotalLabel marks the totals row in the title column.
const TotalLabel = "Total"

// EnteredLabel heads the hidden column holding the amount text as entered.
const EnteredLabel = "Entered"

var header = []any{"ID", "Date", "Title", "Category", "Amount", EnteredLabel}

// WriteXLSX writes records to a workbook, one row each in store order, followed
// by a totals row. Amounts that parse are written as numbers, others as text.
// Column F keeps the exact amount text and is hidden.
func WriteXLSX(w io.Writer, records []core.Expense, cur core.Currency) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	numFmt := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, e := range records {
		row := []any{e.ID, e.Date, e.Title, string(e.Category), e.Amount, e.Amount}
		if d, err := core.ParseAmount(e.Amount); err == nil {
			row[4] = d.InexactFloat64()
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalRow := len(records) + 2
	sum := core.Summarize(records)
	label, _ := excelize.CoordinatesToCellName(3, totalRow)
	total, _ := excelize.CoordinatesToCellName(5, totalRow)
	if err := f.SetCellValue(SheetName, label, TotalLabel); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	if err := f.SetCellValue(SheetName, total, sum.Total.InexactFloat64()); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	if err := f.SetCellStyle(SheetName, label, total, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "E2", total, money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}

	// currency goes in the amount header so the numeric cells stay plain
	if err := f.SetCellValue(SheetName, "E1", "Amount ("+cur.Code+")"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 32); err != nil {
		return fmt.Errorf("set width: %w", err)
	}
	if err := f.SetColVisible(SheetName, "F", false); err != nil {
		return fmt.Errorf("hide column: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads records from a workbook produced by WriteXLSX. The totals row
// and blank rows are skipped; categories are parsed leniently. The entered
// amount text wins over the numeric cell when the sheet carries it.
func ReadXLSX(r io.Reader) ([]core.Expense, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	entered := -1
	if len(rows) > 0 {
		for n, h := range rows[0] {
			if strings.TrimSpace(h) == EnteredLabel {
				entered = n
			}
		}
	}

	records := make([]core.Expense, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if cell(0) == "" && (cell(2) == TotalLabel || cell(2) == "") {
			continue
		}

		cat, err := core.ParseCategory(cell(3))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount := cell(4)
		if entered >= 0 && entered < len(row) && row[entered] != "" {
			amount = row[entered]
		}
		records = append(records, core.Expense{
			ID:       cell(0),
			Date:     cell(1),
			Title:    cell(2),
			Category: cat,
			Amount:   amount,
		})
	}
	return records, nil
}
