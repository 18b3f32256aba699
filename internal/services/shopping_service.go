package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/store"
)

type ShoppingService struct {
	items    store.ShoppingStore
	partners *ledger.PartnerResolver
}

func NewShoppingService(items store.ShoppingStore, partners *ledger.PartnerResolver) *ShoppingService {
	return &ShoppingService{items: items, partners: partners}
}

// List returns the couple's shopping list, newest first.
func (s *ShoppingService) List(ctx context.Context, userID string) ([]core.ShoppingItem, error) {
	couple := s.partners.Resolve(ctx, userID)
	items, err := s.items.ListShoppingItems(ctx, couple.IDs())
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	return items, nil
}

// Add puts an item on the list. Quantity defaults to 1 and category to
// core.DefaultShoppingCategory.
func (s *ShoppingService) Add(ctx context.Context, userID string, item core.ShoppingItem) (core.ShoppingItem, error) {
	item.ID = ""
	item.OwnerID = userID
	item.Completed = false
	item.Name = strings.TrimSpace(item.Name)
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Category == "" {
		item.Category = core.DefaultShoppingCategory
	}
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	created, err := s.items.CreateShoppingItem(ctx, item)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("create shopping item: %w", err)
	}
	return created, nil
}

func (s *ShoppingService) SetCompleted(ctx context.Context, userID, id string, completed bool) (core.ShoppingItem, error) {
	if err := s.authorize(ctx, userID, id); err != nil {
		return core.ShoppingItem{}, err
	}
	item, err := s.items.SetShoppingItemCompleted(ctx, id, completed)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("update shopping item: %w", err)
	}
	return item, nil
}

func (s *ShoppingService) Delete(ctx context.Context, userID, id string) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.items.DeleteShoppingItem(ctx, id); err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

// ClearCompleted removes the caller's own completed items.
func (s *ShoppingService) ClearCompleted(ctx context.Context, userID string) (int, error) {
	n, err := s.items.DeleteCompletedShoppingItems(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear completed shopping items: %w", err)
	}
	slog.InfoContext(ctx, "Cleared completed shopping items", "user_id", userID, "count", n)
	return n, nil
}

func (s *ShoppingService) authorize(ctx context.Context, userID, id string) error {
	item, err := s.items.GetShoppingItem(ctx, id)
	if err != nil {
		return fmt.Errorf("get shopping item: %w", err)
	}
	if !s.partners.Resolve(ctx, userID).Contains(item.OwnerID) {
		return fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// PendingCount counts items not yet completed.
func PendingCount(items []core.ShoppingItem) int {
	n := 0
	for _, item := range items {
		if !item.Completed {
			n++
		}
	}
	return n
}
