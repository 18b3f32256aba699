// Package report renders ledger summaries as downloadable spreadsheets.
package report

import (
	"fmt"
	"io"

	"despesas/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Resumo"
	BillsSheet   = "Contas"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	summaryHeader = []string{"Mês", "Total", "Contas", "Atual"}
	billsHeader   = []string{"Mês", "Vencimento", "Nome", "Categoria", "Valor", "Pagador", "Mensal"}
)

// WriteMonthlySummary writes one row per month bucket to the summary sheet
// and every bill of the window to the bills sheet.
func WriteMonthlySummary(w io.Writer, summaries []core.MonthSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(BillsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, toAny(summaryHeader)); err != nil {
		return err
	}
	if err := writeRow(f, BillsSheet, 1, toAny(billsHeader)); err != nil {
		return err
	}

	billRow := 2
	for i, s := range summaries {
		row := []any{s.MonthKey, s.Total.InexactFloat64(), s.Count, yesNo(s.IsCurrentMonth)}
		if err := writeRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
		for _, r := range s.Records {
			bill := []any{
				s.MonthKey,
				r.OccursOn.String(),
				r.Name,
				r.Category,
				r.Amount.InexactFloat64(),
				r.PayerID,
				yesNo(r.IsMonthly),
			}
			if err := writeRow(f, BillsSheet, billRow, bill); err != nil {
				return err
			}
			billRow++
		}
	}

	if err := f.SetColWidth(BillsSheet, "C", "C", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
