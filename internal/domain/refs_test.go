package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSpot(id string) *Spot {
	s := &Spot{OwnerID: "u1", Visibility: VisibilityPrivate}
	s.ID = id
	s.InitTimestamps()
	return s
}

func newTestKnot(id string) *Knot {
	k := &Knot{OwnerID: "u1", Status: KnotStatusPrivate}
	k.ID = id
	k.InitTimestamps()
	return k
}

func TestLinkSpotKnot_Symmetry(t *testing.T) {
	spot := newTestSpot("spot-1")
	knot := newTestKnot("knot-1")

	changed := LinkSpotKnot(spot, knot)
	assert.True(t, changed)
	assert.True(t, spot.InKnot("knot-1"))
	assert.True(t, knot.ContainsSpot("spot-1"))

	// Both sides must always agree about the relationship.
	assert.Equal(t, knot.ContainsSpot(spot.ID), spot.InKnot(knot.ID))
}

func TestLinkSpotKnot_Idempotent(t *testing.T) {
	spot := newTestSpot("spot-1")
	knot := newTestKnot("knot-1")

	LinkSpotKnot(spot, knot)
	changed := LinkSpotKnot(spot, knot)

	assert.False(t, changed)
	assert.Equal(t, []string{"knot-1"}, spot.KnotIDs)
	assert.Equal(t, []string{"spot-1"}, knot.SpotIDs)
}

func TestUnlinkSpotKnot(t *testing.T) {
	spot := newTestSpot("spot-1")
	knot := newTestKnot("knot-1")
	LinkSpotKnot(spot, knot)

	changed := UnlinkSpotKnot(spot, knot)
	assert.True(t, changed)
	assert.Empty(t, spot.KnotIDs)
	assert.Empty(t, knot.SpotIDs)

	// Unlinking an unlinked pair is a no-op, not an error.
	assert.False(t, UnlinkSpotKnot(spot, knot))
}

func TestUnlinkSpotKnot_RepairsOneSidedLink(t *testing.T) {
	// A transiently dangling reference (knot lists the spot, spot does not
	// list the knot) still resolves to a clean state.
	spot := newTestSpot("spot-1")
	knot := newTestKnot("knot-1")
	knot.AddSpot("spot-1")

	changed := UnlinkSpotKnot(spot, knot)
	assert.True(t, changed)
	assert.Empty(t, knot.SpotIDs)
	assert.Empty(t, spot.KnotIDs)
}

func TestFollowDelta_Symmetry(t *testing.T) {
	a := NewUserProfile("user-a", "alice", "@alice")
	b := NewUserProfile("user-b", "bob", "@bob")

	changed := FollowDelta(a, b)
	assert.True(t, changed)
	assert.True(t, a.Follows("user-b"))
	assert.True(t, b.FollowedBy("user-a"))
	assert.Equal(t, a.Follows(b.ID), b.FollowedBy(a.ID))

	// Idempotent.
	assert.False(t, FollowDelta(a, b))
	assert.Equal(t, []string{"user-b"}, a.FollowingIDs)
	assert.Equal(t, []string{"user-a"}, b.FollowerIDs)
}

func TestUnfollowDelta_Symmetry(t *testing.T) {
	a := NewUserProfile("user-a", "alice", "@alice")
	b := NewUserProfile("user-b", "bob", "@bob")
	FollowDelta(a, b)

	changed := UnfollowDelta(a, b)
	assert.True(t, changed)
	assert.False(t, a.Follows("user-b"))
	assert.False(t, b.FollowedBy("user-a"))

	assert.False(t, UnfollowDelta(a, b))
}

func TestRemoveTagDelta_OneSided(t *testing.T) {
	spot := newTestSpot("spot-1")
	spot.TaggedUsers = []string{"@alice", "@bob"}

	assert.True(t, RemoveTagDelta(spot, "@alice"))
	assert.Equal(t, []string{"@bob"}, spot.TaggedUsers)

	// Removing an absent tag changes nothing.
	assert.False(t, RemoveTagDelta(spot, "@alice"))
}

func TestSpot_LikeSet(t *testing.T) {
	spot := newTestSpot("spot-1")

	assert.True(t, spot.AddLiker("user-a"))
	assert.False(t, spot.AddLiker("user-a"))
	assert.True(t, spot.LikedBy("user-a"))

	assert.True(t, spot.RemoveLiker("user-a"))
	assert.False(t, spot.RemoveLiker("user-a"))
	assert.False(t, spot.LikedBy("user-a"))
}

func TestGroup_Membership(t *testing.T) {
	g := NewGroup("grp-1", "user-a", "Hiking")

	assert.True(t, g.IsMember("user-a"))
	assert.True(t, g.AddMember("user-b"))
	assert.False(t, g.AddMember("user-b"))

	// The creator is never removable.
	assert.False(t, g.CanRemoveMember("user-a"))
	assert.False(t, g.RemoveMember("user-a"))

	assert.True(t, g.RemoveMember("user-b"))
	assert.Equal(t, []string{"user-a"}, g.MemberIDs)

	// The sole remaining member is not removable either.
	assert.False(t, g.CanRemoveMember("user-a"))
}

func TestKnot_ValidDateRange(t *testing.T) {
	k := newTestKnot("knot-1")
	k.StartDate = k.CreatedAt
	k.EndDate = k.CreatedAt
	assert.True(t, k.ValidDateRange())

	k.EndDate = k.StartDate.AddDate(0, 0, -1)
	assert.False(t, k.ValidDateRange())
}

func TestKnot_Placement(t *testing.T) {
	k := newTestKnot("knot-1")

	k.Status = KnotStatusPublic
	assert.Equal(t, Placement{OwnerID: "u1", Visibility: VisibilityPublic}, k.Placement())

	k.Status = KnotStatusInternal
	k.GroupID = "grp-1"
	assert.Equal(t, Placement{OwnerID: "u1", GroupID: "grp-1", Visibility: VisibilityPrivate}, k.Placement())
}
