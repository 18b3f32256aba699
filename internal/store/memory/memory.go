// Package memory is the demo backend: every port of package store held in
// process memory, optionally seeded from a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seed is the content of a demo data file.
type Seed struct {
	Profiles []core.Profile      `json:"profiles"`
	Records  []core.Record       `json:"records"`
	Goals    []core.Goal         `json:"goals"`
	Shopping []core.ShoppingItem `json:"shopping"`
}

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	profiles []core.Profile
	records  []core.Record
	goals    []core.Goal
	shopping []core.ShoppingItem
}

// Ensure interface conformance
var (
	_ store.ProfileStore  = (*Store)(nil)
	_ store.ProfileWriter = (*Store)(nil)
	_ store.RecordStore   = (*Store)(nil)
	_ store.GoalStore     = (*Store)(nil)
	_ store.ShoppingStore = (*Store)(nil)
)

func New(seed Seed) *Store {
	s := &Store{now: time.Now}
	s.profiles = append(s.profiles, seed.Profiles...)
	for _, r := range seed.Records {
		s.records = append(s.records, s.stamp(r))
	}
	for _, g := range seed.Goals {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		s.goals = append(s.goals, g)
	}
	for _, item := range seed.Shopping {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		s.shopping = append(s.shopping, item)
	}
	return s
}

// NewFromFile seeds the store from a JSON file. A missing file yields the
// default demo couple.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(DefaultSeed()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read demo data: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse demo data %s: %w", path, err)
	}
	if len(seed.Profiles) == 0 {
		seed.Profiles = DefaultSeed().Profiles
	}
	return New(seed), nil
}

// DefaultSeed is a linked demo couple with no data.
func DefaultSeed() Seed {
	return Seed{
		Profiles: []core.Profile{
			{ID: "demo-ana", DisplayName: "Ana", CoupleID: "demo-bruno"},
			{ID: "demo-bruno", DisplayName: "Bruno", CoupleID: "demo-ana"},
		},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Profiles

func (s *Store) GetProfile(_ context.Context, id string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Profile{}, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListProfiles(context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.profiles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.profiles, func(existing core.Profile) bool { return existing.ID == p.ID }); i >= 0 {
		s.profiles[i] = p
		return p, nil
	}
	s.profiles = append(s.profiles, p)
	return p, nil
}

// Records

func (s *Store) ListRecords(_ context.Context, q store.RecordQuery) ([]core.Record, error) {
	s.mu.Lock()
	out := make([]core.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Kind == q.Kind {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	if len(q.OwnerIDs) > 0 {
		out = ledger.FilterByOwners(out, q.OwnerIDs)
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		to := q.To
		if to.IsZero() {
			to = core.NewDate(9999, 12, 31)
		}
		out = ledger.FilterByRange(out, q.From, to)
	}
	if q.UnpaidOnly {
		out = ledger.FilterUnpaid(out)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].OccursOn.After(out[j].OccursOn)
		}
		return out[i].OccursOn.Before(out[j].OccursOn)
	})
	return out, nil
}

func (s *Store) GetRecord(_ context.Context, kind core.Kind, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(kind, id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return s.records[i], nil
}

func (s *Store) CreateRecords(_ context.Context, records ...core.Record) ([]core.Record, error) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		r.ID = ""
		r = s.stamp(r)
		s.records = append(s.records, r)
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) UpdateRecord(_ context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(r.Kind, r.ID)
	if i < 0 {
		return core.Record{}, fmt.Errorf("%s %s: %w", r.Kind, r.ID, store.ErrNotFound)
	}
	prev := s.records[i]
	r.CreatedAt = prev.CreatedAt
	r.IsPaid = prev.IsPaid
	s.records[i] = r
	return r, nil
}

func (s *Store) DeleteRecord(_ context.Context, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(kind, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	s.records = slices.Delete(s.records, i, i+1)
	return nil
}

func (s *Store) MarkPaid(_ context.Context, upcomingID string, realized core.Record) (core.Record, error) {
	if err := realized.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(core.KindUpcoming, upcomingID)
	if i < 0 {
		return core.Record{}, fmt.Errorf("upcoming %s: %w", upcomingID, store.ErrNotFound)
	}
	if s.records[i].IsPaid {
		return core.Record{}, store.ErrAlreadyPaid
	}
	s.records[i].IsPaid = true
	realized.ID = ""
	realized = s.stamp(realized)
	s.records = append(s.records, realized)
	return realized, nil
}

func (s *Store) recordIndex(kind core.Kind, id string) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool {
		return r.Kind == kind && r.ID == id
	})
}

func (s *Store) stamp(r core.Record) core.Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	return r
}

// Goals

func (s *Store) ListGoals(_ context.Context, ownerIDs []string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, 0, len(s.goals))
	for i := len(s.goals) - 1; i >= 0; i-- {
		if slices.Contains(ownerIDs, s.goals[i].OwnerID) {
			out = append(out, s.goals[i])
		}
	}
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.goals, func(g core.Goal) bool { return g.ID == id })
	if i < 0 {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	return s.goals[i], nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	g.CreatedAt = s.now().UTC()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateGoalProgress(_ context.Context, id string, current decimal.Decimal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.goals, func(g core.Goal) bool { return g.ID == id })
	if i < 0 {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	updated, err := s.goals[i].WithProgress(current)
	if err != nil {
		return core.Goal{}, err
	}
	s.goals[i] = updated
	return updated, nil
}

// Shopping

func (s *Store) ListShoppingItems(_ context.Context, ownerIDs []string) ([]core.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ShoppingItem, 0, len(s.shopping))
	for i := len(s.shopping) - 1; i >= 0; i-- {
		if slices.Contains(ownerIDs, s.shopping[i].OwnerID) {
			out = append(out, s.shopping[i])
		}
	}
	return out, nil
}

func (s *Store) GetShoppingItem(_ context.Context, id string) (core.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.shoppingIndex(id)
	if i < 0 {
		return core.ShoppingItem{}, fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
	}
	return s.shopping[i], nil
}

func (s *Store) CreateShoppingItem(_ context.Context, item core.ShoppingItem) (core.ShoppingItem, error) {
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = s.now().UTC()
	s.shopping = append(s.shopping, item)
	return item, nil
}

func (s *Store) SetShoppingItemCompleted(_ context.Context, id string, completed bool) (core.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.shoppingIndex(id)
	if i < 0 {
		return core.ShoppingItem{}, fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
	}
	s.shopping[i].Completed = completed
	return s.shopping[i], nil
}

func (s *Store) DeleteShoppingItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.shoppingIndex(id)
	if i < 0 {
		return fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
	}
	s.shopping = slices.Delete(s.shopping, i, i+1)
	return nil
}

func (s *Store) DeleteCompletedShoppingItems(_ context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.shopping)
	s.shopping = slices.DeleteFunc(s.shopping, func(item core.ShoppingItem) bool {
		return item.OwnerID == ownerID && item.Completed
	})
	return before - len(s.shopping), nil
}

func (s *Store) shoppingIndex(id string) int {
	return slices.IndexFunc(s.shopping, func(item core.ShoppingItem) bool { return item.ID == id })
}
