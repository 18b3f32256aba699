package services

import (
	"context"
	"fmt"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	records  store.RecordStore
	goals    store.GoalStore
	shopping store.ShoppingStore
	partners *ledger.PartnerResolver
}

func NewDashboardService(records store.RecordStore, goals store.GoalStore, shopping store.ShoppingStore, partners *ledger.PartnerResolver) *DashboardService {
	return &DashboardService{
		records:  records,
		goals:    goals,
		shopping: shopping,
		partners: partners,
	}
}

// Dashboard computes the month overview of the caller's couple. The couple
// is resolved first; the independent reads then run concurrently.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, ref core.Date) (core.Dashboard, error) {
	couple := s.partners.Resolve(ctx, userID)
	ids := couple.IDs()
	start, end := ledger.MonthRange(ref)

	var (
		expenses, incomes, bills []core.Record
		goals                    []core.Goal
		items                    []core.ShoppingItem
	)
	g, gctx := errgroup.WithContext(ctx)
	list := func(kind core.Kind, unpaid bool, dst *[]core.Record) func() error {
		return func() error {
			records, err := s.records.ListRecords(gctx, store.RecordQuery{
				Kind:       kind,
				OwnerIDs:   ids,
				From:       start,
				To:         end,
				UnpaidOnly: unpaid,
			})
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}
			*dst = records
			return nil
		}
	}
	g.Go(list(core.KindExpense, false, &expenses))
	g.Go(list(core.KindIncome, false, &incomes))
	g.Go(list(core.KindUpcoming, true, &bills))
	g.Go(func() error {
		var err error
		if goals, err = s.goals.ListGoals(gctx, ids); err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = s.shopping.ListShoppingItems(gctx, ids); err != nil {
			return fmt.Errorf("list shopping items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	monthKey := ref.MonthKey()
	targets := decimal.Zero
	for _, goal := range goals {
		if goal.Month == monthKey {
			targets = targets.Add(goal.TargetAmount)
		}
	}

	totalExpenses := ledger.Total(expenses)
	totalIncomes := ledger.Total(incomes)
	return core.Dashboard{
		MonthKey:        monthKey,
		TotalExpenses:   totalExpenses,
		TotalIncomes:    totalIncomes,
		Balance:         totalIncomes.Sub(totalExpenses),
		PendingBills:    ledger.Total(bills),
		ByCategory:      ledger.TotalsByCategory(expenses, core.ExpenseCategories),
		GoalTargets:     targets,
		PendingShopping: PendingCount(items),
	}, nil
}
