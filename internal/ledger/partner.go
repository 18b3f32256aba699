// Package ledger holds the couple-scoped aggregation logic shared by every
// feature: partner resolution, record filtering, monthly bucketing,
// recurrence expansion and due-date classification.
//
// All functions treat their inputs as value snapshots. They never mutate a
// record in place and always return fresh slices.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"despesas/internal/core"
)

// ProfileReader fetches profiles by id.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (core.Profile, error)
}

// Couple is the set of user ids whose rows a caller may see.
type Couple struct {
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id,omitempty"`
}

// IDs returns the member ids, caller first, without duplicates.
func (c Couple) IDs() []string {
	if c.PartnerID == "" || c.PartnerID == c.UserID {
		return []string{c.UserID}
	}
	return []string{c.UserID, c.PartnerID}
}

// Contains reports whether id belongs to the couple.
func (c Couple) Contains(id string) bool {
	return id != "" && slices.Contains(c.IDs(), id)
}

func (c Couple) HasPartner() bool {
	return len(c.IDs()) == 2
}

// PartnerResolver turns a user into its couple. Lookup failures degrade
// to a single-user couple and are only logged.
type PartnerResolver struct {
	profiles ProfileReader
}

func NewPartnerResolver(profiles ProfileReader) *PartnerResolver {
	return &PartnerResolver{profiles: profiles}
}

// Resolve loads the caller's profile and resolves its couple.
func (r *PartnerResolver) Resolve(ctx context.Context, userID string) Couple {
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Profile lookup failed, using single-user scope",
			"user_id", userID,
			"error", err)
		return Couple{UserID: userID}
	}
	if profile.ID == "" {
		profile.ID = userID
	}
	return r.ResolveProfile(ctx, profile)
}

// ResolveProfile resolves the couple of an already loaded profile. The
// link is followed one way: B does not need to point back at A.
func (r *PartnerResolver) ResolveProfile(ctx context.Context, profile core.Profile) Couple {
	couple := Couple{UserID: profile.ID}
	partnerID := strings.TrimSpace(profile.CoupleID)
	if partnerID == "" || partnerID == profile.ID {
		return couple
	}

	partner, err := r.profiles.GetProfile(ctx, partnerID)
	if err != nil {
		slog.WarnContext(ctx, "Partner lookup failed, using single-user scope",
			"user_id", profile.ID,
			"partner_id", partnerID,
			"error", err)
		return couple
	}
	if partner.ID == "" {
		slog.WarnContext(ctx, "Partner profile not found, using single-user scope",
			"user_id", profile.ID,
			"partner_id", partnerID)
		return couple
	}
	couple.PartnerID = partner.ID
	return couple
}
