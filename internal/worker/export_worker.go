// Package worker mirrors realized expenses into the export spreadsheet by
// consuming ledger events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/sheets"
	"despesas/internal/store"
)

// RecordReader is the part of the record store the worker needs.
type RecordReader interface {
	GetRecord(ctx context.Context, kind core.Kind, id string) (core.Record, error)
}

// ExportWorker handles ledger events from AMQP. Only realized expenses are
// exported; income and upcoming events other than payment are ignored.
type ExportWorker struct {
	records  RecordReader
	exporter sheets.ExpenseExporter
	remover  sheets.ExpenseRemover
}

func NewExportWorker(records RecordReader, exporter sheets.ExpenseExporter, remover sheets.ExpenseRemover) *ExportWorker {
	return &ExportWorker{
		records:  records,
		exporter: exporter,
		remover:  remover,
	}
}

// HandleEvent processes a single ledger event. Returned errors ask the
// consumer to retry the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", e.Type,
		"kind", e.Kind,
		"record_id", e.RecordID)

	switch {
	case e.Type == amqp.EventUpcomingPaid:
		return w.export(ctx, e.ExpenseID)
	case e.Kind != core.KindExpense:
		slog.DebugContext(ctx, "Ignoring non expense event", "type", e.Type, "kind", e.Kind)
		return nil
	case e.Type == amqp.EventRecordCreated:
		return w.export(ctx, e.RecordID)
	case e.Type == amqp.EventRecordUpdated:
		// the row is replaced so the sheet holds the current values
		if err := w.remove(ctx, e.RecordID, e.PreviousOn); err != nil {
			return err
		}
		return w.export(ctx, e.RecordID)
	case e.Type == amqp.EventRecordDeleted:
		return w.remove(ctx, e.RecordID, e.PreviousOn)
	default:
		return fmt.Errorf("unsupported event type %q", e.Type)
	}
}

func (w *ExportWorker) export(ctx context.Context, id string) error {
	expense, err := w.records.GetRecord(ctx, core.KindExpense, id)
	if errors.Is(err, store.ErrNotFound) {
		// deleted before the event was consumed
		slog.WarnContext(ctx, "Expense no longer exists, skipping export", "record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ref, err := w.exporter.AppendExpense(ctx, expense)
	if err != nil {
		return fmt.Errorf("append expense to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Exported expense",
		"record_id", expense.ID,
		"month", expense.OccursOn.MonthKey(),
		"row", ref)
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, id string, on core.Date) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No expense remover configured, skipping deletion", "record_id", id)
		return nil
	}
	if err := w.remover.DeleteExpense(ctx, id, on); err != nil {
		return fmt.Errorf("delete expense from sheet: %w", err)
	}
	slog.InfoContext(ctx, "Removed exported expense", "record_id", id)
	return nil
}
