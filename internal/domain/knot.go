package domain

import (
	"slices"
	"time"
)

// KnotStatus describes where a Knot's copies live.
type KnotStatus string

const (
	// KnotStatusPublic keeps an owner copy plus a global public copy.
	KnotStatusPublic KnotStatus = "public"
	// KnotStatusPrivate keeps only the owner-scoped copy.
	KnotStatusPrivate KnotStatus = "private"
	// KnotStatusInternal scopes the Knot to a group. Requires GroupID.
	KnotStatusInternal KnotStatus = "internal"
)

// Valid checks if the status is a known value.
func (s KnotStatus) Valid() bool {
	switch s {
	case KnotStatusPublic, KnotStatusPrivate, KnotStatusInternal:
		return true
	default:
		return false
	}
}

// Knot is a named collection of Spots spanning a date range. Every id in
// SpotIDs should correspond to a Spot whose KnotIDs set contains this Knot's
// id; a violation is tolerated transiently mid-operation but must never
// survive a completed sync operation.
type Knot struct {
	Syncable

	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      KnotStatus `json:"status"`
	GroupID     string     `json:"group_id,omitempty"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	CoverImageData string `json:"cover_image_data,omitempty"`
	CoverBlurhash  string `json:"cover_blurhash,omitempty"`

	SpotIDs []string `json:"spot_ids"`
}

// ValidDateRange reports whether StartDate <= EndDate.
func (k *Knot) ValidDateRange() bool {
	return !k.StartDate.After(k.EndDate)
}

// Placement returns the Knot's current placement descriptor. Internal status
// maps to the group scope; the visibility field of the descriptor only
// matters for groupless knots.
func (k *Knot) Placement() Placement {
	vis := VisibilityPrivate
	if k.Status == KnotStatusPublic {
		vis = VisibilityPublic
	}
	groupID := ""
	if k.Status == KnotStatusInternal {
		groupID = k.GroupID
	}
	return Placement{
		OwnerID:    k.OwnerID,
		GroupID:    groupID,
		Visibility: vis,
	}
}

// AddSpot adds a spot ID to the collection if not already present.
func (k *Knot) AddSpot(spotID string) bool {
	if slices.Contains(k.SpotIDs, spotID) {
		return false
	}
	k.SpotIDs = append(k.SpotIDs, spotID)
	return true
}

// RemoveSpot removes a spot ID from the collection.
func (k *Knot) RemoveSpot(spotID string) bool {
	for i, id := range k.SpotIDs {
		if id == spotID {
			k.SpotIDs = append(k.SpotIDs[:i], k.SpotIDs[i+1:]...)
			return true
		}
	}
	return false
}

// ContainsSpot checks if a spot ID is in this Knot.
func (k *Knot) ContainsSpot(spotID string) bool {
	return slices.Contains(k.SpotIDs, spotID)
}
