// Package store declares the persistence ports of the ledger. Backends
// (memory, sqlite, postgres) implement them; services depend only on the
// narrow interface they need.
package store

import (
	"context"
	"errors"

	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyPaid = errors.New("upcoming expense already paid")
)

// RecordQuery selects records of one kind. Zero fields do not filter.
type RecordQuery struct {
	Kind       core.Kind
	OwnerIDs   []string
	From       core.Date
	To         core.Date
	UnpaidOnly bool
	// Descending orders by OccursOn newest first; default is oldest first.
	Descending bool
}

// Ports for outbound adapters.
type (
	ProfileStore interface {
		GetProfile(ctx context.Context, id string) (core.Profile, error)
		ListProfiles(ctx context.Context) ([]core.Profile, error)
	}

	// ProfileWriter lets a user register its display name and couple link.
	ProfileWriter interface {
		UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}

	RecordStore interface {
		ListRecords(ctx context.Context, q RecordQuery) ([]core.Record, error)
		GetRecord(ctx context.Context, kind core.Kind, id string) (core.Record, error)
		// CreateRecords inserts all records in one call and returns them
		// with store assigned ids and timestamps.
		CreateRecords(ctx context.Context, records ...core.Record) ([]core.Record, error)
		UpdateRecord(ctx context.Context, r core.Record) (core.Record, error)
		DeleteRecord(ctx context.Context, kind core.Kind, id string) error
		// MarkPaid flips an unpaid upcoming expense to paid and inserts the
		// realized expense as one unit. It returns ErrAlreadyPaid, writing
		// nothing, when the expense was paid before.
		MarkPaid(ctx context.Context, upcomingID string, realized core.Record) (core.Record, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context, ownerIDs []string) ([]core.Goal, error)
		GetGoal(ctx context.Context, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal) (core.Goal, error)
	}

	ShoppingStore interface {
		ListShoppingItems(ctx context.Context, ownerIDs []string) ([]core.ShoppingItem, error)
		GetShoppingItem(ctx context.Context, id string) (core.ShoppingItem, error)
		CreateShoppingItem(ctx context.Context, item core.ShoppingItem) (core.ShoppingItem, error)
		SetShoppingItemCompleted(ctx context.Context, id string, completed bool) (core.ShoppingItem, error)
		DeleteShoppingItem(ctx context.Context, id string) error
		// DeleteCompletedShoppingItems removes the owner's completed items
		// and returns how many were removed.
		DeleteCompletedShoppingItems(ctx context.Context, ownerID string) (int, error)
	}
)
