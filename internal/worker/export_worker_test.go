package worker

import (
	"context"
	"errors"
	"testing"

	"despesas/internal/amqp"
	"despesas/internal/core"
	sheetsmem "despesas/internal/sheets/memory"
	"despesas/internal/store/memory"

	"github.com/shopspring/decimal"
)

type failingExporter struct{}

func (failingExporter) AppendExpense(context.Context, core.Record) (string, error) {
	return "", errors.New("quota exceeded")
}

func setup(t *testing.T) (*memory.Store, *sheetsmem.Exporter, *ExportWorker) {
	t.Helper()
	st := memory.New(memory.DefaultSeed())
	exp := sheetsmem.New()
	return st, exp, NewExportWorker(st, exp, exp)
}

func record(kind core.Kind, name string) core.Record {
	r := core.Record{
		Kind:     kind,
		Name:     name,
		Amount:   decimal.RequireFromString("42.10"),
		Category: "Outros",
		OccursOn: core.NewDate(2024, 3, 5),
		OwnerID:  "demo-ana",
	}
	if kind.HasPayer() {
		r.PayerID = "demo-ana"
	}
	return r
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	st, exp, w := setup(t)

	created, err := st.CreateRecords(ctx, record(core.KindExpense, "Mercado"))
	if err != nil {
		t.Fatal(err)
	}
	id := created[0].ID

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordCreated, core.KindExpense, id, "demo-ana")); err != nil {
		t.Fatalf("created: %v", err)
	}
	rows := exp.Rows()
	if len(rows) != 1 || rows[0][0] != id || rows[0][3] != "42.10" {
		t.Fatalf("rows after create = %v", rows)
	}

	updated := created[0]
	updated.Name = "Feira"
	if _, err := st.UpdateRecord(ctx, updated); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordUpdated, core.KindExpense, id, "demo-ana")); err != nil {
		t.Fatalf("updated: %v", err)
	}
	rows = exp.Rows()
	if len(rows) != 1 || rows[0][2] != "Feira" {
		t.Fatalf("rows after update = %v", rows)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordDeleted, core.KindExpense, id, "demo-ana")); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if rows := exp.Rows(); len(rows) != 0 {
		t.Fatalf("rows after delete = %v", rows)
	}
}

func TestHandleEvent_UpdateMovesRowBetweenYears(t *testing.T) {
	ctx := context.Background()
	st, exp, w := setup(t)

	old := record(core.KindExpense, "IPVA")
	old.OccursOn = core.NewDate(2021, 1, 20)
	created, err := st.CreateRecords(ctx, old)
	if err != nil {
		t.Fatal(err)
	}
	id := created[0].ID
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordCreated, core.KindExpense, id, "demo-ana")); err != nil {
		t.Fatalf("created: %v", err)
	}

	moved := created[0]
	moved.OccursOn = core.NewDate(2024, 1, 20)
	if _, err := st.UpdateRecord(ctx, moved); err != nil {
		t.Fatal(err)
	}
	e := amqp.NewLedgerEvent(amqp.EventRecordUpdated, core.KindExpense, id, "demo-ana")
	e.PreviousOn = old.OccursOn
	if err := w.HandleEvent(ctx, e); err != nil {
		t.Fatalf("updated: %v", err)
	}
	rows := exp.Rows()
	if len(rows) != 1 || rows[0][1] != "2024-01-20" {
		t.Fatalf("expected only the 2024 row, got %v", rows)
	}

	e = amqp.NewLedgerEvent(amqp.EventRecordDeleted, core.KindExpense, id, "demo-ana")
	e.PreviousOn = moved.OccursOn
	if err := w.HandleEvent(ctx, e); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if rows := exp.Rows(); len(rows) != 0 {
		t.Fatalf("rows after delete = %v", rows)
	}
}

func TestHandleEvent_UpcomingPaidExportsRealizedExpense(t *testing.T) {
	ctx := context.Background()
	st, exp, w := setup(t)

	up, err := st.CreateRecords(ctx, record(core.KindUpcoming, "Luz"))
	if err != nil {
		t.Fatal(err)
	}
	realized, err := st.MarkPaid(ctx, up[0].ID, up[0].Realize(core.NewDate(2024, 3, 10)))
	if err != nil {
		t.Fatal(err)
	}

	e := amqp.NewLedgerEvent(amqp.EventUpcomingPaid, core.KindUpcoming, up[0].ID, "demo-ana")
	e.ExpenseID = realized.ID
	if err := w.HandleEvent(ctx, e); err != nil {
		t.Fatalf("paid: %v", err)
	}
	rows := exp.Rows()
	if len(rows) != 1 || rows[0][0] != realized.ID || rows[0][1] != "2024-03-10" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestHandleEvent_IgnoredAndMissing(t *testing.T) {
	ctx := context.Background()
	st, exp, w := setup(t)

	inc, err := st.CreateRecords(ctx, record(core.KindIncome, "Salário"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordCreated, core.KindIncome, inc[0].ID, "demo-ana")); err != nil {
		t.Fatalf("income event: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordCreated, core.KindExpense, "gone", "demo-ana")); err != nil {
		t.Fatalf("missing expense should be skipped: %v", err)
	}
	if rows := exp.Rows(); len(rows) != 0 {
		t.Fatalf("nothing should be exported, got %v", rows)
	}
}

func TestHandleEvent_ExportErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.DefaultSeed())
	created, err := st.CreateRecords(ctx, record(core.KindExpense, "Mercado"))
	if err != nil {
		t.Fatal(err)
	}
	w := NewExportWorker(st, failingExporter{}, nil)

	err = w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordCreated, core.KindExpense, created[0].ID, "demo-ana"))
	if err == nil {
		t.Fatal("expected export error")
	}
	// no remover configured: deletes are skipped
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRecordDeleted, core.KindExpense, created[0].ID, "demo-ana")); err != nil {
		t.Fatalf("delete without remover: %v", err)
	}
}
