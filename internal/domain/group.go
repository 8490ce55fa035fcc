package domain

import "slices"

// Group is a membership set that scopes Spots and Knots to an internal
// audience. Group-scoped content lives under the group's own scope path,
// never under the global public one.
type Group struct {
	Syncable

	CreatorID   string `json:"creator_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BadgeColor  string `json:"badge_color,omitempty"`

	MemberIDs []string `json:"member_ids"`
}

// NewGroup creates a group with the creator as its first member.
func NewGroup(id, creatorID, name string) *Group {
	g := &Group{
		CreatorID: creatorID,
		Name:      name,
		MemberIDs: []string{creatorID},
	}
	g.ID = id
	g.InitTimestamps()
	return g
}

// IsMember checks if the given user belongs to the group.
func (g *Group) IsMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// AddMember adds a user to the group if not already present.
func (g *Group) AddMember(userID string) bool {
	if slices.Contains(g.MemberIDs, userID) {
		return false
	}
	g.MemberIDs = append(g.MemberIDs, userID)
	return true
}

// CanRemoveMember reports whether the given user may be removed. The creator
// is never removable, and neither is the last remaining member.
func (g *Group) CanRemoveMember(userID string) bool {
	if userID == g.CreatorID {
		return false
	}
	if len(g.MemberIDs) <= 1 {
		return false
	}
	return g.IsMember(userID)
}

// RemoveMember removes a user from the group. Removal does not move or evict
// content the member already placed in the group.
func (g *Group) RemoveMember(userID string) bool {
	if !g.CanRemoveMember(userID) {
		return false
	}
	for i, id := range g.MemberIDs {
		if id == userID {
			g.MemberIDs = append(g.MemberIDs[:i], g.MemberIDs[i+1:]...)
			return true
		}
	}
	return false
}
