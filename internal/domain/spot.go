// Package domain contains the Knotspot entity types and the pure consistency
// rules that operate on them: scope placement resolution and back-reference
// deltas. Nothing in this package performs I/O.
package domain

import (
	"slices"
	"time"
)

// Visibility controls whether a groupless entity has a global public copy.
type Visibility string

const (
	// VisibilityPublic means a copy exists under the global public scope.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate means only the owner-scoped copy exists.
	VisibilityPrivate Visibility = "private"
)

// Valid checks if the visibility is a known value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// LatLng is a resolved geographic coordinate supplied by the location
// collaborator. The core embeds it without interpretation.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Spot is a single location/time-tagged content item. A Spot scoped to a
// group must not carry a standalone public copy; a groupless Spot has exactly
// one owner-private copy and at most one public copy. Those rules live in
// ResolvePlacement, not here.
type Spot struct {
	Syncable

	OwnerID    string     `json:"owner_id"`
	Visibility Visibility `json:"visibility"`
	GroupID    string     `json:"group_id,omitempty"`

	Caption       string    `json:"caption,omitempty"`
	LocationName  string    `json:"location_name,omitempty"`
	LocationCoord *LatLng   `json:"location_coord,omitempty"`
	TakenAt       time.Time `json:"taken_at"`

	// Cover image data arrives already resolved from the image collaborator.
	// CoverBlurhash is a compact placeholder derived from it at write time.
	CoverImageData string `json:"cover_image_data,omitempty"`
	CoverBlurhash  string `json:"cover_blurhash,omitempty"`

	// Back-references maintained by the reference integrity deltas.
	KnotIDs     []string `json:"knot_ids"`
	TaggedUsers []string `json:"tagged_users,omitempty"`
	LikerIDs    []string `json:"liker_ids,omitempty"`

	CommentCount int `json:"comment_count"`
}

// IsPublic reports whether this Spot should have a global public copy.
// A Spot in a group is never public, whatever its visibility field says.
func (s *Spot) IsPublic() bool {
	return s.GroupID == "" && s.Visibility == VisibilityPublic
}

// Placement returns the Spot's current placement descriptor.
func (s *Spot) Placement() Placement {
	return Placement{
		OwnerID:    s.OwnerID,
		GroupID:    s.GroupID,
		Visibility: s.Visibility,
	}
}

// AddKnot adds a knot ID to the back-reference set if not already present.
func (s *Spot) AddKnot(knotID string) bool {
	if slices.Contains(s.KnotIDs, knotID) {
		return false
	}
	s.KnotIDs = append(s.KnotIDs, knotID)
	return true
}

// RemoveKnot removes a knot ID from the back-reference set.
func (s *Spot) RemoveKnot(knotID string) bool {
	for i, id := range s.KnotIDs {
		if id == knotID {
			s.KnotIDs = append(s.KnotIDs[:i], s.KnotIDs[i+1:]...)
			return true
		}
	}
	return false
}

// InKnot checks if this Spot lists the given knot.
func (s *Spot) InKnot(knotID string) bool {
	return slices.Contains(s.KnotIDs, knotID)
}

// LikedBy checks if the given user has liked this Spot.
func (s *Spot) LikedBy(userID string) bool {
	return slices.Contains(s.LikerIDs, userID)
}

// AddLiker adds a user ID to the liker set if not already present.
func (s *Spot) AddLiker(userID string) bool {
	if slices.Contains(s.LikerIDs, userID) {
		return false
	}
	s.LikerIDs = append(s.LikerIDs, userID)
	return true
}

// RemoveLiker removes a user ID from the liker set.
func (s *Spot) RemoveLiker(userID string) bool {
	for i, id := range s.LikerIDs {
		if id == userID {
			s.LikerIDs = append(s.LikerIDs[:i], s.LikerIDs[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTaggedUser strips a profile tag from the Spot. Tags are denormalized
// strings with no back-reference on the profile, so this is deliberately
// one-sided.
func (s *Spot) RemoveTaggedUser(tag string) bool {
	for i, t := range s.TaggedUsers {
		if t == tag {
			s.TaggedUsers = append(s.TaggedUsers[:i], s.TaggedUsers[i+1:]...)
			return true
		}
	}
	return false
}
