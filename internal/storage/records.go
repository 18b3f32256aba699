package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"despesas/internal/core"
	"despesas/internal/store"

	"github.com/google/uuid"
)

// recordTable describes where one record kind lives.
type recordTable struct {
	name    string
	dateCol string
	payer   bool
	flags   bool // is_paid, is_monthly
}

var recordTables = map[core.Kind]recordTable{
	core.KindExpense:  {name: "expenses", dateCol: "date", payer: true},
	core.KindIncome:   {name: "incomes", dateCol: "date"},
	core.KindUpcoming: {name: "upcoming_expenses", dateCol: "due_date", payer: true, flags: true},
}

func tableFor(kind core.Kind) (recordTable, error) {
	t, ok := recordTables[kind]
	if !ok {
		return recordTable{}, core.ErrInvalidKind
	}
	return t, nil
}

func (t recordTable) columns() []string {
	cols := []string{"id", "name", "amount", "category", t.dateCol, "user_id", "observations", "created_at"}
	if t.payer {
		cols = append(cols, "payer")
	}
	if t.flags {
		cols = append(cols, "is_paid", "is_monthly")
	}
	return cols
}

func (t recordTable) values(r core.Record) []any {
	args := []any{r.ID, r.Name, r.Amount.StringFixed(2), r.Category, r.OccursOn, r.OwnerID, r.Observations, r.CreatedAt.UTC()}
	if t.payer {
		args = append(args, r.PayerID)
	}
	if t.flags {
		args = append(args, r.IsPaid, r.IsMonthly)
	}
	return args
}

func (t recordTable) selectSQL() string {
	return "SELECT " + strings.Join(t.columns(), ", ") + " FROM " + t.name
}

func (t recordTable) insertSQL() string {
	cols := t.columns()
	return "INSERT INTO " + t.name + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
}

func (t recordTable) scan(kind core.Kind, row scanner) (core.Record, error) {
	r := core.Record{Kind: kind}
	dest := []any{&r.ID, &r.Name, &r.Amount, &r.Category, &r.OccursOn, &r.OwnerID, &r.Observations, &r.CreatedAt}
	if t.payer {
		dest = append(dest, &r.PayerID)
	}
	if t.flags {
		dest = append(dest, &r.IsPaid, &r.IsMonthly)
	}
	if err := row.Scan(dest...); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

func (r *Repository) ListRecords(ctx context.Context, q store.RecordQuery) ([]core.Record, error) {
	t, err := tableFor(q.Kind)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if len(q.OwnerIDs) > 0 {
		where = append(where, "user_id IN ("+placeholders(len(q.OwnerIDs))+")")
		args = append(args, stringArgs(q.OwnerIDs)...)
	}
	if !q.From.IsZero() {
		where = append(where, t.dateCol+" >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		where = append(where, t.dateCol+" <= ?")
		args = append(args, q.To)
	}
	if q.UnpaidOnly && t.flags {
		where = append(where, "is_paid = ?")
		args = append(args, false)
	}

	query := t.selectSQL()
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	order := "ASC"
	if q.Descending {
		order = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, created_at %s", t.dateCol, order, order)

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []core.Record{}
	for rows.Next() {
		rec, err := t.scan(q.Kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetRecord(ctx context.Context, kind core.Kind, id string) (core.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return core.Record{}, err
	}
	row := r.db.QueryRowContext(ctx, r.rebind(t.selectSQL()+" WHERE id = ?"), id)
	rec, err := t.scan(kind, row)
	if err != nil {
		return core.Record{}, notFound(err, fmt.Sprintf("get %s %s", kind, id))
	}
	return rec, nil
}

// CreateRecords inserts every record in a single transaction.
func (r *Repository) CreateRecords(ctx context.Context, records ...core.Record) ([]core.Record, error) {
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]core.Record, 0, len(records))
	for _, rec := range records {
		created, err := r.insertRecord(ctx, tx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit records: %w", err)
	}

	slog.DebugContext(ctx, "Records saved", "count", len(out), "dialect", string(r.dialect))
	return out, nil
}

func (r *Repository) insertRecord(ctx context.Context, tx *sql.Tx, rec core.Record) (core.Record, error) {
	t, err := tableFor(rec.Kind)
	if err != nil {
		return core.Record{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.now().UTC()
	if _, err := tx.ExecContext(ctx, r.rebind(t.insertSQL()), t.values(rec)...); err != nil {
		return core.Record{}, fmt.Errorf("insert into %s: %w", t.name, err)
	}
	return rec, nil
}

// UpdateRecord rewrites the editable fields. The paid flag is left alone:
// only MarkPaid moves it.
func (r *Repository) UpdateRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	t, err := tableFor(rec.Kind)
	if err != nil {
		return core.Record{}, err
	}

	sets := []string{"name = ?", "amount = ?", "category = ?", t.dateCol + " = ?", "observations = ?"}
	args := []any{rec.Name, rec.Amount.StringFixed(2), rec.Category, rec.OccursOn, rec.Observations}
	if t.payer {
		sets = append(sets, "payer = ?")
		args = append(args, rec.PayerID)
	}
	if t.flags {
		sets = append(sets, "is_monthly = ?")
		args = append(args, rec.IsMonthly)
	}
	args = append(args, rec.ID)

	query := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return core.Record{}, fmt.Errorf("update %s %s: %w", rec.Kind, rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Record{}, fmt.Errorf("update %s %s: %w", rec.Kind, rec.ID, store.ErrNotFound)
	}
	return r.GetRecord(ctx, rec.Kind, rec.ID)
}

func (r *Repository) DeleteRecord(ctx context.Context, kind core.Kind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM "+t.name+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

// MarkPaid flips is_paid with a conditional update and inserts the realized
// expense in the same transaction, so either both writes land or neither.
func (r *Repository) MarkPaid(ctx context.Context, upcomingID string, realized core.Record) (core.Record, error) {
	if err := realized.Validate(); err != nil {
		return core.Record{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		r.rebind("UPDATE upcoming_expenses SET is_paid = ? WHERE id = ? AND is_paid = ?"),
		true, upcomingID, false)
	if err != nil {
		return core.Record{}, fmt.Errorf("mark upcoming %s paid: %w", upcomingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var paid bool
		err := tx.QueryRowContext(ctx,
			r.rebind("SELECT is_paid FROM upcoming_expenses WHERE id = ?"), upcomingID).Scan(&paid)
		if err != nil {
			return core.Record{}, notFound(err, "mark upcoming "+upcomingID+" paid")
		}
		return core.Record{}, store.ErrAlreadyPaid
	}

	expense, err := r.insertRecord(ctx, tx, realized)
	if err != nil {
		return core.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit mark paid: %w", err)
	}
	return expense, nil
}
