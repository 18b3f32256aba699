// Package memory is an in-process exporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"despesas/internal/core"
	"despesas/internal/sheets"
)

var (
	_ sheets.ExpenseExporter = (*Exporter)(nil)
	_ sheets.ExpenseRemover  = (*Exporter)(nil)
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Exporter {
	return &Exporter{}
}

// AppendExpense stores the row and returns a synthetic row reference.
func (e *Exporter) AppendExpense(_ context.Context, r core.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(r))
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// DeleteExpense removes the rows of id filed in on's year, or in any year
// when on is zero.
func (e *Exporter) DeleteExpense(_ context.Context, id string, on core.Date) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	year := ""
	if !on.IsZero() {
		year = on.Format("2006")
	}
	kept := e.rows[:0]
	for _, row := range e.rows {
		date, _ := row[1].(string)
		if row[0] == id && (year == "" || strings.HasPrefix(date, year)) {
			continue
		}
		kept = append(kept, row)
	}
	e.rows = kept
	return nil
}

// Rows returns a copy of the exported rows.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows...)
}
