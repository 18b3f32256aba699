package services

import (
	"context"
	"fmt"
	"strings"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/store"
)

type ProfileService struct {
	profiles store.ProfileStore
	writer   store.ProfileWriter
	partners *ledger.PartnerResolver
}

func NewProfileService(profiles store.ProfileStore, writer store.ProfileWriter, partners *ledger.PartnerResolver) *ProfileService {
	return &ProfileService{profiles: profiles, writer: writer, partners: partners}
}

// List returns every profile, used to pick a payer.
func (s *ProfileService) List(ctx context.Context) ([]core.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) Couple(ctx context.Context, userID string) ledger.Couple {
	return s.partners.Resolve(ctx, userID)
}

// Save registers the caller's display name and couple link.
func (s *ProfileService) Save(ctx context.Context, userID string, p core.Profile) (core.Profile, error) {
	p.ID = userID
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.CoupleID = strings.TrimSpace(p.CoupleID)
	if p.DisplayName == "" {
		return core.Profile{}, core.ErrEmptyName
	}
	if p.CoupleID == userID {
		p.CoupleID = ""
	}
	saved, err := s.writer.UpsertProfile(ctx, p)
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}
