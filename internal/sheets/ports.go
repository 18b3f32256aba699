// Package sheets declares the export ports used by the worker to mirror
// realized expenses into a spreadsheet.
package sheets

import (
	"context"

	"despesas/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter appends one realized expense as a spreadsheet row.
	ExpenseExporter interface {
		AppendExpense(ctx context.Context, r core.Record) (rowRef string, err error)
	}

	// ExpenseRemover deletes the row previously exported for an expense id
	// dated on. A zero date searches the recent years. Removing an id that
	// was never exported is not an error.
	ExpenseRemover interface {
		DeleteExpense(ctx context.Context, id string, on core.Date) error
	}
)

// Header is the column layout of the exported sheet.
var Header = []string{"ID", "Data", "Nome", "Valor", "Categoria", "Pagador", "Dono", "Observações"}

// Row renders r in Header order.
func Row(r core.Record) []any {
	return []any{
		r.ID,
		r.OccursOn.String(),
		r.Name,
		r.Amount.StringFixed(2),
		r.Category,
		r.PayerID,
		r.OwnerID,
		r.Observations,
	}
}
