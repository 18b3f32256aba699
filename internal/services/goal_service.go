package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/store"

	"github.com/shopspring/decimal"
)

// GoalView is a goal with its derived progress.
type GoalView struct {
	core.Goal
	Progress decimal.Decimal `json:"progress"`
	Status   core.GoalStatus `json:"status"`
}

func viewGoal(g core.Goal) GoalView {
	return GoalView{Goal: g, Progress: g.Progress(), Status: g.Status()}
}

type GoalService struct {
	goals    store.GoalStore
	partners *ledger.PartnerResolver
	now      func() time.Time
}

func NewGoalService(goals store.GoalStore, partners *ledger.PartnerResolver) *GoalService {
	return &GoalService{goals: goals, partners: partners, now: time.Now}
}

// List returns the couple's goals, optionally restricted to one month
// ("YYYY-MM"; empty means all).
func (s *GoalService) List(ctx context.Context, userID, month string) ([]GoalView, error) {
	couple := s.partners.Resolve(ctx, userID)
	goals, err := s.goals.ListGoals(ctx, couple.IDs())
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		if month != "" && g.Month != month {
			continue
		}
		out = append(out, viewGoal(g))
	}
	return out, nil
}

// Create stores a goal owned by userID. The month defaults to the current
// one and progress starts at zero unless given.
func (s *GoalService) Create(ctx context.Context, userID string, g core.Goal) (GoalView, error) {
	g.ID = ""
	g.OwnerID = userID
	g.Name = strings.TrimSpace(g.Name)
	if g.Month == "" {
		g.Month = core.DateOf(s.now()).MonthKey()
	}
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	created, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created", "goal_id", created.ID, "user_id", userID, "month", created.Month)
	return viewGoal(created), nil
}

// UpdateProgress sets the goal's current amount. Progress never decreases.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, id string, amount decimal.Decimal) (GoalView, error) {
	g, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return GoalView{}, fmt.Errorf("get goal: %w", err)
	}
	if !s.partners.Resolve(ctx, userID).Contains(g.OwnerID) {
		return GoalView{}, fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	next, err := g.WithProgress(amount)
	if err != nil {
		return GoalView{}, err
	}
	updated, err := s.goals.UpdateGoalProgress(ctx, id, next.CurrentAmount)
	if err != nil {
		return GoalView{}, fmt.Errorf("update goal progress: %w", err)
	}
	return viewGoal(updated), nil
}
