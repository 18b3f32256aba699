package storage

import (
	"context"
	"database/sql"
	"fmt"

	"despesas/internal/core"
	"despesas/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profiles

func (r *Repository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	var (
		p        core.Profile
		coupleID sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		r.rebind("SELECT id, display_name, couple_id FROM profiles WHERE id = ?"), id).
		Scan(&p.ID, &p.DisplayName, &coupleID)
	if err != nil {
		return core.Profile{}, notFound(err, "get profile "+id)
	}
	p.CoupleID = coupleID.String
	return p, nil
}

func (r *Repository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, display_name, couple_id FROM profiles ORDER BY display_name")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []core.Profile{}
	for rows.Next() {
		var (
			p        core.Profile
			coupleID sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &coupleID); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.CoupleID = coupleID.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProfile creates the profile or replaces its name and couple link.
func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	coupleID := sql.NullString{String: p.CoupleID, Valid: p.CoupleID != ""}
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO profiles (id, display_name, couple_id) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name, couple_id = excluded.couple_id`),
		p.ID, p.DisplayName, coupleID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return p, nil
}

// Goals

const goalColumns = "id, name, category, target_amount, current_amount, month, user_id, created_at"

func scanGoal(row scanner) (core.Goal, error) {
	var g core.Goal
	err := row.Scan(&g.ID, &g.Name, &g.Category, &g.TargetAmount, &g.CurrentAmount, &g.Month, &g.OwnerID, &g.CreatedAt)
	return g, err
}

func (r *Repository) ListGoals(ctx context.Context, ownerIDs []string) ([]core.Goal, error) {
	if len(ownerIDs) == 0 {
		return []core.Goal{}, nil
	}
	query := "SELECT " + goalColumns + " FROM goals WHERE user_id IN (" + placeholders(len(ownerIDs)) + ") ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, r.rebind(query), stringArgs(ownerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, r.rebind("SELECT "+goalColumns+" FROM goals WHERE id = ?"), id))
	if err != nil {
		return core.Goal{}, notFound(err, "get goal "+id)
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = uuid.NewString()
	g.CreatedAt = r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		r.rebind("INSERT INTO goals ("+goalColumns+") VALUES ("+placeholders(8)+")"),
		g.ID, g.Name, g.Category, g.TargetAmount.StringFixed(2), g.CurrentAmount.StringFixed(2), g.Month, g.OwnerID, g.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

// UpdateGoalProgress reads and writes the goal in one transaction so the
// monotonic check sees the committed amount.
func (r *Repository) UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal) (core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGoal(tx.QueryRowContext(ctx, r.rebind("SELECT "+goalColumns+" FROM goals WHERE id = ?"), id))
	if err != nil {
		return core.Goal{}, notFound(err, "get goal "+id)
	}
	updated, err := g.WithProgress(current)
	if err != nil {
		return core.Goal{}, err
	}
	if _, err := tx.ExecContext(ctx, r.rebind("UPDATE goals SET current_amount = ? WHERE id = ?"),
		updated.CurrentAmount.StringFixed(2), id); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit goal progress: %w", err)
	}
	return updated, nil
}

// Shopping

const shoppingColumns = "id, name, quantity, category, completed, user_id, created_at"

func scanShoppingItem(row scanner) (core.ShoppingItem, error) {
	var item core.ShoppingItem
	err := row.Scan(&item.ID, &item.Name, &item.Quantity, &item.Category, &item.Completed, &item.OwnerID, &item.CreatedAt)
	return item, err
}

func (r *Repository) ListShoppingItems(ctx context.Context, ownerIDs []string) ([]core.ShoppingItem, error) {
	if len(ownerIDs) == 0 {
		return []core.ShoppingItem{}, nil
	}
	query := "SELECT " + shoppingColumns + " FROM shopping_items WHERE user_id IN (" + placeholders(len(ownerIDs)) + ") ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, r.rebind(query), stringArgs(ownerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	out := []core.ShoppingItem{}
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *Repository) GetShoppingItem(ctx context.Context, id string) (core.ShoppingItem, error) {
	item, err := scanShoppingItem(r.db.QueryRowContext(ctx,
		r.rebind("SELECT "+shoppingColumns+" FROM shopping_items WHERE id = ?"), id))
	if err != nil {
		return core.ShoppingItem{}, notFound(err, "get shopping item "+id)
	}
	return item, nil
}

func (r *Repository) CreateShoppingItem(ctx context.Context, item core.ShoppingItem) (core.ShoppingItem, error) {
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		r.rebind("INSERT INTO shopping_items ("+shoppingColumns+") VALUES ("+placeholders(7)+")"),
		item.ID, item.Name, item.Quantity, item.Category, item.Completed, item.OwnerID, item.CreatedAt)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("insert shopping item: %w", err)
	}
	return item, nil
}

func (r *Repository) SetShoppingItemCompleted(ctx context.Context, id string, completed bool) (core.ShoppingItem, error) {
	res, err := r.db.ExecContext(ctx, r.rebind("UPDATE shopping_items SET completed = ? WHERE id = ?"), completed, id)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("update shopping item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ShoppingItem{}, fmt.Errorf("update shopping item %s: %w", id, store.ErrNotFound)
	}
	return r.GetShoppingItem(ctx, id)
}

func (r *Repository) DeleteShoppingItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM shopping_items WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete shopping item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete shopping item %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteCompletedShoppingItems(ctx context.Context, ownerID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		r.rebind("DELETE FROM shopping_items WHERE user_id = ? AND completed = ?"), ownerID, true)
	if err != nil {
		return 0, fmt.Errorf("clear completed shopping items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear completed shopping items: %w", err)
	}
	return int(n), nil
}
