package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacement_Authoritative(t *testing.T) {
	tests := []struct {
		name      string
		placement Placement
		expected  Scope
	}{
		{
			"groupless entity is owner-scoped",
			Placement{OwnerID: "user-1", Visibility: VisibilityPublic},
			OwnerScope("user-1"),
		},
		{
			"group membership wins over visibility",
			Placement{OwnerID: "user-1", GroupID: "grp-1", Visibility: VisibilityPublic},
			GroupScope("grp-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.placement.Authoritative())
		})
	}
}

func TestPlacement_HasPublicCopy(t *testing.T) {
	assert.True(t, Placement{OwnerID: "u", Visibility: VisibilityPublic}.HasPublicCopy())
	assert.False(t, Placement{OwnerID: "u", Visibility: VisibilityPrivate}.HasPublicCopy())
	// A grouped entity never has a standalone public copy.
	assert.False(t, Placement{OwnerID: "u", GroupID: "g", Visibility: VisibilityPublic}.HasPublicCopy())
}

func TestResolvePlacement_CreateFromNothing(t *testing.T) {
	tests := []struct {
		name     string
		newP     Placement
		expected []PlacementOp
	}{
		{
			"create public spot writes owner then public",
			Placement{OwnerID: "u1", Visibility: VisibilityPublic},
			[]PlacementOp{
				{Scope: OwnerScope("u1"), Op: PlacementUpsert},
				{Scope: PublicScope(), Op: PlacementUpsert},
			},
		},
		{
			"create private spot writes owner only",
			Placement{OwnerID: "u1", Visibility: VisibilityPrivate},
			[]PlacementOp{
				{Scope: OwnerScope("u1"), Op: PlacementUpsert},
			},
		},
		{
			"create grouped spot writes group scope only",
			Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPublic},
			[]PlacementOp{
				{Scope: GroupScope("g1"), Op: PlacementUpsert},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := ResolvePlacement(nil, &tt.newP)
			assert.Equal(t, tt.expected, ops)
		})
	}
}

func TestResolvePlacement_VisibilityFlip(t *testing.T) {
	private := Placement{OwnerID: "u1", Visibility: VisibilityPrivate}
	public := Placement{OwnerID: "u1", Visibility: VisibilityPublic}

	// Going public: owner copy updated in place, public copy created.
	ops := ResolvePlacement(&private, &public)
	require.Len(t, ops, 2)
	assert.Equal(t, PlacementOp{Scope: OwnerScope("u1"), Op: PlacementUpsert}, ops[0])
	assert.Equal(t, PlacementOp{Scope: PublicScope(), Op: PlacementUpsert}, ops[1])

	// Going private: only the public copy is deleted.
	ops = ResolvePlacement(&public, &private)
	require.Len(t, ops, 2)
	assert.Equal(t, PlacementOp{Scope: OwnerScope("u1"), Op: PlacementUpsert}, ops[0])
	assert.Equal(t, PlacementOp{Scope: PublicScope(), Op: PlacementDelete}, ops[1])
}

func TestResolvePlacement_MoveIntoGroup(t *testing.T) {
	public := Placement{OwnerID: "u1", Visibility: VisibilityPublic}
	grouped := Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPublic}

	ops := ResolvePlacement(&public, &grouped)
	require.Len(t, ops, 3)

	// The new authoritative copy always comes first.
	assert.Equal(t, PlacementOp{Scope: GroupScope("g1"), Op: PlacementUpsert}, ops[0])
	assert.Contains(t, ops, PlacementOp{Scope: OwnerScope("u1"), Op: PlacementDelete})
	assert.Contains(t, ops, PlacementOp{Scope: PublicScope(), Op: PlacementDelete})
}

func TestResolvePlacement_MoveBetweenGroups(t *testing.T) {
	oldP := Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPrivate}
	newP := Placement{OwnerID: "u1", GroupID: "g2", Visibility: VisibilityPrivate}

	ops := ResolvePlacement(&oldP, &newP)
	assert.Equal(t, []PlacementOp{
		{Scope: GroupScope("g2"), Op: PlacementUpsert},
		{Scope: GroupScope("g1"), Op: PlacementDelete},
	}, ops)
}

func TestResolvePlacement_MoveOutOfGroup(t *testing.T) {
	grouped := Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPrivate}
	public := Placement{OwnerID: "u1", Visibility: VisibilityPublic}

	ops := ResolvePlacement(&grouped, &public)
	assert.Equal(t, []PlacementOp{
		{Scope: OwnerScope("u1"), Op: PlacementUpsert},
		{Scope: GroupScope("g1"), Op: PlacementDelete},
		{Scope: PublicScope(), Op: PlacementUpsert},
	}, ops)
}

func TestResolvePlacement_FullDelete(t *testing.T) {
	public := Placement{OwnerID: "u1", Visibility: VisibilityPublic}

	// Authoritative deletion goes last so a crash mid-batch never leaves an
	// orphaned public copy with no source of truth.
	ops := ResolvePlacement(&public, nil)
	assert.Equal(t, []PlacementOp{
		{Scope: PublicScope(), Op: PlacementDelete},
		{Scope: OwnerScope("u1"), Op: PlacementDelete},
	}, ops)

	grouped := Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPrivate}
	ops = ResolvePlacement(&grouped, nil)
	assert.Equal(t, []PlacementOp{
		{Scope: GroupScope("g1"), Op: PlacementDelete},
	}, ops)
}

func TestResolvePlacement_NoChange(t *testing.T) {
	p := Placement{OwnerID: "u1", Visibility: VisibilityPublic}

	// Same placement in and out: both live copies updated, nothing deleted.
	ops := ResolvePlacement(&p, &p)
	assert.Equal(t, []PlacementOp{
		{Scope: OwnerScope("u1"), Op: PlacementUpsert},
		{Scope: PublicScope(), Op: PlacementUpsert},
	}, ops)

	assert.Nil(t, ResolvePlacement(nil, nil))
}

func TestPlacement_LiveScopes(t *testing.T) {
	p := Placement{OwnerID: "u1", Visibility: VisibilityPublic}
	assert.Equal(t, []Scope{OwnerScope("u1"), PublicScope()}, p.LiveScopes())

	grouped := Placement{OwnerID: "u1", GroupID: "g1", Visibility: VisibilityPublic}
	assert.Equal(t, []Scope{GroupScope("g1")}, grouped.LiveScopes())
}
