// Package service holds the sync engine: every user intent maps to exactly
// one atomic batch against the document store, built from the pure placement
// and reference-delta rules in the domain package.
package service

import (
	"context"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/store"
	"github.com/knotspotapp/knotspot-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// requireSession rejects an operation before any read when there is no
// acting user context.
func requireSession(session domain.Session) error {
	if !session.Valid() {
		return apperrors.NotAuthenticated("no acting user")
	}
	return nil
}

// memberGroups returns every group the user belongs to. Used to enumerate
// the group scopes a user can see.
func memberGroups(ctx context.Context, s *store.Store, userID string) ([]*domain.Group, error) {
	groups, err := s.Groups.Query(ctx, store.GroupsPrefix())
	if err != nil {
		return nil, err
	}

	member := groups[:0]
	for _, g := range groups {
		if g.IsMember(userID) {
			member = append(member, g)
		}
	}
	return member, nil
}

// visibleScopes lists every scope the user can read: their own private
// scope, the global public scope, and each group they belong to.
func visibleScopes(ctx context.Context, s *store.Store, userID string) ([]domain.Scope, error) {
	scopes := []domain.Scope{domain.OwnerScope(userID), domain.PublicScope()}

	groups, err := memberGroups(ctx, s, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		scopes = append(scopes, domain.GroupScope(g.ID))
	}
	return scopes, nil
}
