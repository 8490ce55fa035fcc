package domain

// ScopeKind identifies one of the three storage scopes an entity copy can
// live in.
type ScopeKind string

const (
	// ScopeOwner is the owner-private scope under users/{ownerID}.
	ScopeOwner ScopeKind = "owner"
	// ScopePublic is the global public scope.
	ScopePublic ScopeKind = "public"
	// ScopeGroup is a group-scoped path under public/groups/{groupID}.
	ScopeGroup ScopeKind = "group"
)

// Scope names one storage scope. OwnerID is set for owner scopes, GroupID
// for group scopes; the public scope carries neither.
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	OwnerID string    `json:"owner_id,omitempty"`
	GroupID string    `json:"group_id,omitempty"`
}

// OwnerScope returns the owner-private scope for a user.
func OwnerScope(ownerID string) Scope {
	return Scope{Kind: ScopeOwner, OwnerID: ownerID}
}

// PublicScope returns the global public scope.
func PublicScope() Scope {
	return Scope{Kind: ScopePublic}
}

// GroupScope returns the scope for a group's internal content.
func GroupScope(groupID string) Scope {
	return Scope{Kind: ScopeGroup, GroupID: groupID}
}

// PlacementOpKind is the operation to perform at a scope.
type PlacementOpKind string

const (
	// PlacementUpsert creates or updates the copy at the scope.
	PlacementUpsert PlacementOpKind = "upsert"
	// PlacementDelete removes the copy at the scope.
	PlacementDelete PlacementOpKind = "delete"
)

// PlacementOp is one scope-level write the resolver decided on.
type PlacementOp struct {
	Scope Scope
	Op    PlacementOpKind
}

// Placement is an entity's visibility/group descriptor. The same rules apply
// to Spots and Knots; a Knot's internal status is expressed as a non-empty
// GroupID here.
type Placement struct {
	OwnerID    string
	GroupID    string
	Visibility Visibility
}

// Authoritative returns the scope holding the source-of-truth copy: the
// group scope when the entity is in a group, the owner-private scope
// otherwise. Exactly one authoritative copy exists at any time.
func (p Placement) Authoritative() Scope {
	if p.GroupID != "" {
		return GroupScope(p.GroupID)
	}
	return OwnerScope(p.OwnerID)
}

// HasPublicCopy reports whether this placement calls for a global public
// copy. Group membership always suppresses the public copy.
func (p Placement) HasPublicCopy() bool {
	return p.GroupID == "" && p.Visibility == VisibilityPublic
}

// LiveScopes returns every scope where a copy currently exists:
// authoritative first, then the public copy if the placement calls for one.
func (p Placement) LiveScopes() []Scope {
	scopes := []Scope{p.Authoritative()}
	if p.HasPublicCopy() {
		scopes = append(scopes, PublicScope())
	}
	return scopes
}

// ResolvePlacement computes the ordered scope operations for a transition
// from oldP to newP. A nil oldP means create-from-nothing; a nil newP means
// delete-everything.
//
// The returned order matters: for any transition that keeps the entity
// alive, the new authoritative copy is written first so no intermediate
// state leaves the entity without a source of truth. For a full delete the
// authoritative copy goes last for the same reason.
func ResolvePlacement(oldP, newP *Placement) []PlacementOp {
	if oldP == nil && newP == nil {
		return nil
	}

	// Full delete: strip the public copy before the authoritative one.
	if newP == nil {
		ops := make([]PlacementOp, 0, 2)
		if oldP.HasPublicCopy() {
			ops = append(ops, PlacementOp{Scope: PublicScope(), Op: PlacementDelete})
		}
		ops = append(ops, PlacementOp{Scope: oldP.Authoritative(), Op: PlacementDelete})
		return ops
	}

	ops := make([]PlacementOp, 0, 3)

	// The authoritative copy is unconditionally written, and written first.
	newAuth := newP.Authoritative()
	ops = append(ops, PlacementOp{Scope: newAuth, Op: PlacementUpsert})

	// Scope move: the old authoritative copy (group or owner) goes away.
	if oldP != nil {
		if oldAuth := oldP.Authoritative(); oldAuth != newAuth {
			ops = append(ops, PlacementOp{Scope: oldAuth, Op: PlacementDelete})
		}
	}

	// The public copy's existence is controlled independently.
	switch {
	case newP.HasPublicCopy():
		ops = append(ops, PlacementOp{Scope: PublicScope(), Op: PlacementUpsert})
	case oldP != nil && oldP.HasPublicCopy():
		ops = append(ops, PlacementOp{Scope: PublicScope(), Op: PlacementDelete})
	}

	return ops
}
