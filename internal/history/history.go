// Package history keeps the recently used expense names of each user for
// autocompletion.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultLimit is how many names are kept per user.
const DefaultLimit = 50

// Store persists one most-recent-first name list per user. Implementations
// dedupe names case-insensitively and cap the list.
type Store interface {
	Push(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

// Service is the expense name history used by the ledger services.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add records name as the most recent entry. Blank names are ignored.
func (s *Service) Add(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || userID == "" {
		return nil
	}
	if err := s.store.Push(ctx, userID, name); err != nil {
		return fmt.Errorf("push history name: %w", err)
	}
	return nil
}

// Remember is Add for callers that must not fail because of the history.
func (s *Service) Remember(ctx context.Context, userID, name string) {
	if s == nil {
		return
	}
	if err := s.Add(ctx, userID, name); err != nil {
		slog.WarnContext(ctx, "Failed to record expense name", "user_id", userID, "error", err)
	}
}

// Search returns the names containing query, ignoring case, most recent
// first. An empty query returns the whole history.
func (s *Service) Search(ctx context.Context, userID, query string) ([]string, error) {
	names, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if query == "" || strings.Contains(strings.ToLower(n), query) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
