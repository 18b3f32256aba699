package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/history"
	"despesas/internal/ledger"
	"despesas/internal/store"
	"despesas/internal/store/memory"

	"github.com/shopspring/decimal"
)

const (
	ana      = "demo-ana"
	bruno    = "demo-bruno"
	stranger = "carla"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	store   *memory.Store
	events  *recordingPublisher
	history *history.Service
	records *RecordService
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	st := memory.New(memory.DefaultSeed())
	events := &recordingPublisher{}
	hist := history.NewService(history.NewMemoryStore(history.DefaultLimit))
	svc := NewRecordService(st, ledger.NewPartnerResolver(st), hist, events, RecordServiceConfig{DueSoonWindowDays: 7, SummaryMonths: 12})
	svc.now = func() time.Time { return now }
	return fixture{store: st, events: events, history: hist, records: svc}
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bill(name string, due core.Date, monthly bool) core.Record {
	return core.Record{
		Kind:      core.KindUpcoming,
		Name:      name,
		Amount:    amount("50"),
		Category:  "Moradia",
		OccursOn:  due,
		IsMonthly: monthly,
	}
}

func TestRecordService_CreateMonthlyUpcoming(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))

	created, err := f.records.Create(ctx, ana, bill("  Internet ", core.NewDate(2024, 1, 31), true))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 13 {
		t.Fatalf("created %d records, want template + 12 projections", len(created))
	}
	tmpl := created[0]
	if tmpl.OccursOn.String() != "2024-01-31" || tmpl.Name != "Internet" || tmpl.OwnerID != ana || tmpl.PayerID != ana {
		t.Errorf("template = %+v", tmpl)
	}
	if got := created[1].OccursOn.String(); got != "2024-02-29" {
		t.Errorf("first projection on %s, want 2024-02-29", got)
	}
	seen := map[string]bool{}
	for _, r := range created {
		if r.ID == "" || seen[r.ID] {
			t.Fatalf("missing or duplicate id in %+v", r)
		}
		seen[r.ID] = true
	}

	names, _ := f.history.Search(ctx, ana, "")
	if len(names) != 1 || names[0] != "Internet" {
		t.Errorf("history = %v", names)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != amqp.EventRecordCreated || f.events.events[0].RecordID != tmpl.ID {
		t.Errorf("events = %+v", f.events.events)
	}
}

func TestRecordService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Now())

	tests := []struct {
		name   string
		record core.Record
		want   error
	}{
		{"empty name", core.Record{Kind: core.KindExpense, Name: " ", Amount: amount("1"), Category: "Lazer", OccursOn: core.NewDate(2024, 1, 1)}, core.ErrEmptyName},
		{"negative amount", core.Record{Kind: core.KindExpense, Name: "x", Amount: amount("-1"), Category: "Lazer", OccursOn: core.NewDate(2024, 1, 1)}, core.ErrInvalidAmount},
		{"income category on expense", core.Record{Kind: core.KindExpense, Name: "x", Amount: amount("1"), Category: "Salário", OccursOn: core.NewDate(2024, 1, 1)}, core.ErrInvalidCategory},
		{"bad kind", core.Record{Kind: "loan", Name: "x", Amount: amount("1"), Category: "Lazer", OccursOn: core.NewDate(2024, 1, 1)}, core.ErrInvalidKind},
		{"payer outside couple", core.Record{Kind: core.KindExpense, Name: "x", Amount: amount("1"), Category: "Lazer", OccursOn: core.NewDate(2024, 1, 1), PayerID: stranger}, core.ErrPayerNotInCouple},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.records.Create(ctx, ana, tt.record); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(f.events.events) != 0 {
		t.Errorf("rejected records must not publish, got %d events", len(f.events.events))
	}
}

func TestRecordService_CoupleScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	created, err := f.records.Create(ctx, ana, core.Record{
		Kind: core.KindExpense, Name: "Mercado", Amount: amount("80.25"), Category: "Alimentação",
		OccursOn: core.NewDate(2024, 3, 2), PayerID: bruno,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.records.Create(ctx, bruno, core.Record{
		Kind: core.KindIncome, Name: "Salário", Amount: amount("3000"), Category: "Salário",
		OccursOn: core.NewDate(2024, 3, 5), PayerID: "ignored",
	}); err != nil {
		t.Fatal(err)
	}

	ref := core.NewDate(2024, 3, 1)
	tests := []struct {
		user string
		kind core.Kind
		want int
	}{
		{ana, core.KindExpense, 1},
		{bruno, core.KindExpense, 1},
		{stranger, core.KindExpense, 0},
		{ana, core.KindIncome, 1},
	}
	for _, tt := range tests {
		got, err := f.records.ListMonth(ctx, tt.user, tt.kind, ref)
		if err != nil {
			t.Fatalf("ListMonth(%s, %s): %v", tt.user, tt.kind, err)
		}
		if len(got) != tt.want {
			t.Errorf("ListMonth(%s, %s) = %d records, want %d", tt.user, tt.kind, len(got), tt.want)
		}
	}
	incomes, _ := f.records.ListMonth(ctx, ana, core.KindIncome, ref)
	if incomes[0].PayerID != "" {
		t.Errorf("income payer should be cleared, got %q", incomes[0].PayerID)
	}

	upd := created[0]
	upd.Amount = amount("90")
	if _, err := f.records.Update(ctx, stranger, upd); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stranger update error = %v, want ErrNotFound", err)
	}
	got, err := f.records.Update(ctx, bruno, upd)
	if err != nil {
		t.Fatalf("partner update: %v", err)
	}
	if !got.Amount.Equal(amount("90")) || got.OwnerID != ana {
		t.Errorf("updated = %+v", got)
	}

	if err := f.records.Delete(ctx, stranger, core.KindExpense, upd.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stranger delete error = %v, want ErrNotFound", err)
	}
	if err := f.records.Delete(ctx, ana, core.KindExpense, upd.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	last := f.events.events[len(f.events.events)-1]
	if last.Type != amqp.EventRecordDeleted || last.RecordID != upd.ID || !last.PreviousOn.Equal(upd.OccursOn.Time) {
		t.Errorf("last event = %+v", last)
	}
}

func TestRecordService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	created, err := f.records.Create(ctx, ana, bill("Luz", core.NewDate(2024, 3, 15), false))
	if err != nil {
		t.Fatal(err)
	}
	up := created[0]

	realized, err := f.records.MarkPaid(ctx, bruno, up.ID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if realized.Kind != core.KindExpense || realized.OccursOn.String() != "2024-03-10" || realized.Name != "Luz" || !realized.Amount.Equal(up.Amount) {
		t.Errorf("realized = %+v", realized)
	}
	paid, _ := f.store.GetRecord(ctx, core.KindUpcoming, up.ID)
	if !paid.IsPaid {
		t.Error("upcoming should be paid")
	}

	if _, err := f.records.MarkPaid(ctx, ana, up.ID); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Errorf("second MarkPaid error = %v, want ErrAlreadyPaid", err)
	}
	expenses, _ := f.records.ListMonth(ctx, ana, core.KindExpense, core.NewDate(2024, 3, 1))
	if len(expenses) != 1 {
		t.Errorf("paying twice must record one expense, got %d", len(expenses))
	}

	last := f.events.events[len(f.events.events)-1]
	if last.Type != amqp.EventUpcomingPaid || last.ExpenseID != realized.ID {
		t.Errorf("last event = %+v", last)
	}
}

func TestRecordService_DueSoonAndOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	for _, b := range []core.Record{
		bill("Hoje", core.NewDate(2024, 3, 10), false),
		bill("Semana", core.NewDate(2024, 3, 15), false),
		bill("Depois", core.NewDate(2024, 3, 25), false),
		bill("Atrasada", core.NewDate(2024, 3, 5), false),
	} {
		if _, err := f.records.Create(ctx, bruno, b); err != nil {
			t.Fatal(err)
		}
	}

	soon, err := f.records.DueSoon(ctx, ana, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(soon) != 2 || soon[0].Name != "Hoje" || soon[0].DaysUntil != 0 || soon[1].DaysUntil != 5 {
		t.Fatalf("due soon = %+v", soon)
	}
	if soon[0].Status != ledger.StatusDueSoon {
		t.Errorf("status = %s", soon[0].Status)
	}

	wide, _ := f.records.DueSoon(ctx, ana, 30)
	if len(wide) != 3 {
		t.Errorf("30 day window = %d bills, want 3", len(wide))
	}

	overdue, err := f.records.Overdue(ctx, ana)
	if err != nil {
		t.Fatal(err)
	}
	if len(overdue) != 1 || overdue[0].Name != "Atrasada" || overdue[0].Status != ledger.StatusOverdue {
		t.Fatalf("overdue = %+v", overdue)
	}
}

func TestRecordService_MonthlySummaries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))

	if _, err := f.records.Create(ctx, ana, bill("Aluguel", core.NewDate(2024, 1, 15), true)); err != nil {
		t.Fatal(err)
	}

	summaries, err := f.records.MonthlySummaries(ctx, bruno, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 12 {
		t.Fatalf("got %d buckets, want 12", len(summaries))
	}
	if summaries[0].MonthKey != "2024-01" || !summaries[0].IsCurrentMonth || !summaries[0].Total.Equal(amount("50")) {
		t.Errorf("first bucket = %+v", summaries[0])
	}
	for i, s := range summaries {
		if s.Count != 1 {
			t.Errorf("bucket %d (%s) count = %d, want 1", i, s.MonthKey, s.Count)
		}
	}
}

func TestRecordService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Now())
	f.events.err = errors.New("broker down")

	created, err := f.records.Create(ctx, ana, core.Record{
		Kind: core.KindExpense, Name: "Cinema", Amount: amount("30"), Category: "Lazer", OccursOn: core.NewDate(2024, 5, 1),
	})
	if err != nil || len(created) != 1 {
		t.Fatalf("Create() = %v, %v", created, err)
	}

	noEvents := NewRecordService(f.store, ledger.NewPartnerResolver(f.store), nil, nil, RecordServiceConfig{})
	if _, err := noEvents.Create(ctx, ana, core.Record{
		Kind: core.KindExpense, Name: "Teatro", Amount: amount("40"), Category: "Lazer", OccursOn: core.NewDate(2024, 5, 2),
	}); err != nil {
		t.Fatalf("Create without publisher or history: %v", err)
	}
}

func TestGoalService(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.DefaultSeed())
	svc := NewGoalService(st, ledger.NewPartnerResolver(st))
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) }

	g, err := svc.Create(ctx, ana, core.Goal{Name: "Viagem", Category: "Lazer", TargetAmount: amount("1000")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Month != "2024-04" || g.Status != core.GoalWithin || !g.Progress.IsZero() {
		t.Errorf("created = %+v", g)
	}

	g, err = svc.UpdateProgress(ctx, bruno, g.ID, amount("850"))
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if g.Status != core.GoalAttention || !g.Progress.Equal(amount("85")) {
		t.Errorf("progress = %s status = %s", g.Progress, g.Status)
	}

	if _, err := svc.UpdateProgress(ctx, ana, g.ID, amount("100")); !errors.Is(err, core.ErrGoalRegression) {
		t.Errorf("regression error = %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, stranger, g.ID, amount("2000")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stranger error = %v", err)
	}
	if _, err := svc.Create(ctx, ana, core.Goal{Name: "Zero", Category: "Lazer", TargetAmount: decimal.Zero}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero target error = %v", err)
	}

	tests := []struct {
		user, month string
		want        int
	}{
		{bruno, "", 1},
		{bruno, "2024-04", 1},
		{bruno, "2024-05", 0},
		{stranger, "", 0},
	}
	for _, tt := range tests {
		got, err := svc.List(ctx, tt.user, tt.month)
		if err != nil || len(got) != tt.want {
			t.Errorf("List(%s, %q) = %d goals, %v; want %d", tt.user, tt.month, len(got), err, tt.want)
		}
	}
}

func TestShoppingService(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.DefaultSeed())
	svc := NewShoppingService(st, ledger.NewPartnerResolver(st))

	milk, err := svc.Add(ctx, ana, core.ShoppingItem{Name: "Leite", Category: "Laticínios"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if milk.Quantity != 1 || milk.Completed {
		t.Errorf("defaults not applied: %+v", milk)
	}
	soap, err := svc.Add(ctx, bruno, core.ShoppingItem{Name: "Sabão", Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}
	if soap.Category != core.DefaultShoppingCategory {
		t.Errorf("category = %q", soap.Category)
	}
	if _, err := svc.Add(ctx, ana, core.ShoppingItem{Name: "x", Category: "Eletrônicos"}); !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("bad category error = %v", err)
	}

	if _, err := svc.SetCompleted(ctx, stranger, milk.ID, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stranger toggle error = %v", err)
	}
	if _, err := svc.SetCompleted(ctx, bruno, milk.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetCompleted(ctx, bruno, soap.ID, true); err != nil {
		t.Fatal(err)
	}

	items, _ := svc.List(ctx, ana)
	if len(items) != 2 || items[0].ID != soap.ID {
		t.Fatalf("list = %+v, want newest first", items)
	}
	if PendingCount(items) != 0 {
		t.Errorf("pending = %d", PendingCount(items))
	}

	n, err := svc.ClearCompleted(ctx, ana)
	if err != nil || n != 1 {
		t.Fatalf("ClearCompleted = %d, %v; only own items are cleared", n, err)
	}
	items, _ = svc.List(ctx, ana)
	if len(items) != 1 || items[0].ID != soap.ID {
		t.Fatalf("after clear = %+v", items)
	}
	if err := svc.Delete(ctx, ana, soap.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	st := f.store

	records := []core.Record{
		{Kind: core.KindExpense, Name: "Mercado", Amount: amount("100.50"), Category: "Alimentação", OccursOn: core.NewDate(2024, 3, 2)},
		{Kind: core.KindExpense, Name: "Aluguel", Amount: amount("1200"), Category: "Moradia", OccursOn: core.NewDate(2024, 3, 1)},
		{Kind: core.KindExpense, Name: "Fevereiro", Amount: amount("999"), Category: "Lazer", OccursOn: core.NewDate(2024, 2, 28)},
		{Kind: core.KindIncome, Name: "Salário", Amount: amount("3000"), Category: "Salário", OccursOn: core.NewDate(2024, 3, 5)},
		bill("Luz", core.NewDate(2024, 3, 20), false),
	}
	for _, r := range records {
		if _, err := f.records.Create(ctx, bruno, r); err != nil {
			t.Fatal(err)
		}
	}
	goals := NewGoalService(st, ledger.NewPartnerResolver(st))
	goals.now = f.records.now
	if _, err := goals.Create(ctx, ana, core.Goal{Name: "Reserva", Category: "Geral", TargetAmount: amount("500")}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewShoppingService(st, ledger.NewPartnerResolver(st)).Add(ctx, ana, core.ShoppingItem{Name: "Pão", Category: "Padaria"}); err != nil {
		t.Fatal(err)
	}

	svc := NewDashboardService(st, st, st, ledger.NewPartnerResolver(st))
	d, err := svc.Dashboard(ctx, ana, core.NewDate(2024, 3, 10))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"expenses", d.TotalExpenses, "1300.50"},
		{"incomes", d.TotalIncomes, "3000"},
		{"balance", d.Balance, "1699.50"},
		{"pending bills", d.PendingBills, "50"},
		{"goal targets", d.GoalTargets, "500"},
	}
	for _, c := range checks {
		if !c.got.Equal(amount(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if d.MonthKey != "2024-03" || d.PendingShopping != 1 {
		t.Errorf("dashboard = %+v", d)
	}
	if len(d.ByCategory) != 2 || d.ByCategory[0].Name != "Moradia" || d.ByCategory[1].Name != "Alimentação" {
		t.Errorf("by category = %+v, want canonical order without empty categories", d.ByCategory)
	}
}

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.DefaultSeed())
	svc := NewProfileService(st, st, ledger.NewPartnerResolver(st))

	if _, err := svc.Save(ctx, stranger, core.Profile{DisplayName: " "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("empty name error = %v", err)
	}
	saved, err := svc.Save(ctx, stranger, core.Profile{ID: "spoofed", DisplayName: "Carla", CoupleID: ana})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID != stranger {
		t.Errorf("profile id = %q, want caller id", saved.ID)
	}
	// the link is one way: ana's couple is unchanged
	if c := svc.Couple(ctx, stranger); !c.Contains(ana) {
		t.Errorf("couple = %+v", c)
	}
	if c := svc.Couple(ctx, ana); c.Contains(stranger) {
		t.Errorf("ana's couple = %+v", c)
	}
	profiles, _ := svc.List(ctx)
	if len(profiles) != 3 {
		t.Errorf("profiles = %v", profiles)
	}
}
