// Package services orchestrates the ledger use cases: couple resolution,
// store access, name history and event publishing.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/history"
	"despesas/internal/ledger"
	"despesas/internal/store"
)

// DueItem is an upcoming expense with its position relative to today.
type DueItem struct {
	core.Record
	DaysUntil int              `json:"days_until"`
	Status    ledger.DueStatus `json:"status"`
}

type RecordServiceConfig struct {
	DueSoonWindowDays int
	SummaryMonths     int
}

// RecordService handles expenses, incomes and upcoming expenses.
type RecordService struct {
	records  store.RecordStore
	partners *ledger.PartnerResolver
	history  *history.Service
	events   EventPublisher
	cfg      RecordServiceConfig
	now      func() time.Time
}

func NewRecordService(records store.RecordStore, partners *ledger.PartnerResolver, hist *history.Service, events EventPublisher, cfg RecordServiceConfig) *RecordService {
	if cfg.DueSoonWindowDays < 0 {
		cfg.DueSoonWindowDays = ledger.DefaultDueSoonWindow
	}
	if cfg.SummaryMonths <= 0 {
		cfg.SummaryMonths = 12
	}
	return &RecordService{
		records:  records,
		partners: partners,
		history:  hist,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *RecordService) today() core.Date {
	return core.DateOf(s.now())
}

// ListMonth returns the couple's records of ref's month. Expenses and
// incomes come newest first; upcoming expenses are the unpaid ones,
// earliest due first.
func (s *RecordService) ListMonth(ctx context.Context, userID string, kind core.Kind, ref core.Date) ([]core.Record, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	couple := s.partners.Resolve(ctx, userID)
	start, end := ledger.MonthRange(ref)
	q := store.RecordQuery{
		Kind:     kind,
		OwnerIDs: couple.IDs(),
		From:     start,
		To:       end,
	}
	if kind == core.KindUpcoming {
		q.UnpaidOnly = true
	} else {
		q.Descending = true
	}
	records, err := s.records.ListRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return records, nil
}

// Create stores a record owned by userID. A monthly upcoming expense is
// stored together with its twelve monthly projections in one call; the
// template is always the first returned record.
func (s *RecordService) Create(ctx context.Context, userID string, r core.Record) ([]core.Record, error) {
	r.ID = ""
	r.OwnerID = userID
	r.IsPaid = false
	r.Name = strings.TrimSpace(r.Name)
	if r.Kind == core.KindIncome {
		r.PayerID = ""
	} else if r.PayerID == "" {
		r.PayerID = userID
	}
	if r.Kind != core.KindUpcoming {
		r.IsMonthly = false
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPayer(ctx, userID, r); err != nil {
		return nil, err
	}

	batch := append([]core.Record{r}, ledger.Expand(r)...)
	created, err := s.records.CreateRecords(ctx, batch...)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.Kind, err)
	}

	slog.InfoContext(ctx, "Record created",
		"kind", r.Kind,
		"record_id", created[0].ID,
		"user_id", userID,
		"projections", len(created)-1)

	if r.Kind.HasPayer() {
		s.history.Remember(ctx, userID, r.Name)
	}
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.EventRecordCreated, r.Kind, created[0].ID, userID))
	return created, nil
}

// Get returns a record visible to userID's couple.
func (s *RecordService) Get(ctx context.Context, userID string, kind core.Kind, id string) (core.Record, error) {
	r, err := s.records.GetRecord(ctx, kind, id)
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s: %w", kind, err)
	}
	if !s.partners.Resolve(ctx, userID).Contains(r.OwnerID) {
		return core.Record{}, fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return r, nil
}

// checkPayer requires the payer of an expense to belong to the caller's couple.
func (s *RecordService) checkPayer(ctx context.Context, userID string, r core.Record) error {
	if r.Kind == core.KindIncome || r.PayerID == userID {
		return nil
	}
	if !s.partners.Resolve(ctx, userID).Contains(r.PayerID) {
		return fmt.Errorf("%w: %s", core.ErrPayerNotInCouple, r.PayerID)
	}
	return nil
}

// Update replaces the editable fields of a record. Owner, creation time
// and paid flag are kept.
func (s *RecordService) Update(ctx context.Context, userID string, r core.Record) (core.Record, error) {
	existing, err := s.Get(ctx, userID, r.Kind, r.ID)
	if err != nil {
		return core.Record{}, err
	}
	r.OwnerID = existing.OwnerID
	r.CreatedAt = existing.CreatedAt
	r.IsPaid = existing.IsPaid
	r.Name = strings.TrimSpace(r.Name)
	if r.Kind == core.KindIncome {
		r.PayerID = ""
	} else if r.PayerID == "" {
		r.PayerID = existing.PayerID
	}
	if r.Kind != core.KindUpcoming {
		r.IsMonthly = false
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	if err := s.checkPayer(ctx, userID, r); err != nil {
		return core.Record{}, err
	}

	updated, err := s.records.UpdateRecord(ctx, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("update %s: %w", r.Kind, err)
	}
	event := amqp.NewLedgerEvent(amqp.EventRecordUpdated, r.Kind, r.ID, userID)
	event.PreviousOn = existing.OccursOn
	publish(ctx, s.events, event)
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, userID string, kind core.Kind, id string) error {
	existing, err := s.Get(ctx, userID, kind, id)
	if err != nil {
		return err
	}
	if err := s.records.DeleteRecord(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	slog.InfoContext(ctx, "Record deleted", "kind", kind, "record_id", id, "user_id", userID)
	event := amqp.NewLedgerEvent(amqp.EventRecordDeleted, kind, id, userID)
	event.PreviousOn = existing.OccursOn
	publish(ctx, s.events, event)
	return nil
}

// MarkPaid pays an upcoming expense today and returns the realized
// expense. Paying twice fails with store.ErrAlreadyPaid.
func (s *RecordService) MarkPaid(ctx context.Context, userID, upcomingID string) (core.Record, error) {
	upcoming, err := s.Get(ctx, userID, core.KindUpcoming, upcomingID)
	if err != nil {
		return core.Record{}, err
	}
	if upcoming.IsPaid {
		return core.Record{}, fmt.Errorf("upcoming %s: %w", upcomingID, store.ErrAlreadyPaid)
	}

	realized, err := s.records.MarkPaid(ctx, upcomingID, upcoming.Realize(s.today()))
	if err != nil {
		return core.Record{}, fmt.Errorf("mark paid: %w", err)
	}

	slog.InfoContext(ctx, "Upcoming expense paid",
		"record_id", upcomingID,
		"expense_id", realized.ID,
		"user_id", userID)

	event := amqp.NewLedgerEvent(amqp.EventUpcomingPaid, core.KindUpcoming, upcomingID, userID)
	event.ExpenseID = realized.ID
	publish(ctx, s.events, event)
	return realized, nil
}

// DueSoon lists the couple's unpaid bills due within windowDays, today
// included. A negative window uses the configured default.
func (s *RecordService) DueSoon(ctx context.Context, userID string, windowDays int) ([]DueItem, error) {
	if windowDays < 0 {
		windowDays = s.cfg.DueSoonWindowDays
	}
	unpaid, err := s.unpaid(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return s.dueItems(ledger.DueSoon(unpaid, now, windowDays), now, windowDays), nil
}

// Overdue lists the couple's unpaid bills whose due day has passed.
func (s *RecordService) Overdue(ctx context.Context, userID string) ([]DueItem, error) {
	unpaid, err := s.unpaid(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return s.dueItems(ledger.Overdue(unpaid, now), now, s.cfg.DueSoonWindowDays), nil
}

// MonthlySummaries buckets the couple's unpaid bills into months, starting
// with the current one. months <= 0 uses the configured count.
func (s *RecordService) MonthlySummaries(ctx context.Context, userID string, months int) ([]core.MonthSummary, error) {
	if months <= 0 {
		months = s.cfg.SummaryMonths
	}
	today := s.today()
	couple := s.partners.Resolve(ctx, userID)
	records, err := s.records.ListRecords(ctx, store.RecordQuery{
		Kind:       core.KindUpcoming,
		OwnerIDs:   couple.IDs(),
		From:       today.FirstOfMonth(),
		To:         today.FirstOfMonth().AddMonths(months - 1).LastOfMonth(),
		UnpaidOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return ledger.BuildSummaries(records, today, months), nil
}

func (s *RecordService) unpaid(ctx context.Context, userID string) ([]core.Record, error) {
	couple := s.partners.Resolve(ctx, userID)
	records, err := s.records.ListRecords(ctx, store.RecordQuery{
		Kind:       core.KindUpcoming,
		OwnerIDs:   couple.IDs(),
		UnpaidOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return records, nil
}

func (s *RecordService) dueItems(records []core.Record, now time.Time, windowDays int) []DueItem {
	out := make([]DueItem, 0, len(records))
	for _, r := range records {
		out = append(out, DueItem{
			Record:    r,
			DaysUntil: ledger.DaysUntil(r.OccursOn, now),
			Status:    ledger.Classify(r, now, windowDays),
		})
	}
	return out
}
