package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// SocialService maintains the follow graph. A follow edge is a matched pair
// of back-references on two profile documents, written in one atomic batch
// so the symmetry invariant holds after every completed operation.
type SocialService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(s *store.Store, logger *slog.Logger) *SocialService {
	return &SocialService{store: s, logger: logger}
}

// GetProfile returns a user's profile document.
func (s *SocialService) GetProfile(ctx context.Context, session domain.Session, userID string) (*domain.UserProfile, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// Follow adds the acting user to the target's followers and the target to
// the acting user's following set, both in the same batch.
func (s *SocialService) Follow(ctx context.Context, session domain.Session, userID string) (*domain.UserProfile, error) {
	return s.changeEdge(ctx, session, userID, domain.FollowDelta)
}

// Unfollow removes the matched follow pair.
func (s *SocialService) Unfollow(ctx context.Context, session domain.Session, userID string) (*domain.UserProfile, error) {
	return s.changeEdge(ctx, session, userID, domain.UnfollowDelta)
}

func (s *SocialService) changeEdge(
	ctx context.Context,
	session domain.Session,
	userID string,
	delta func(follower, followee *domain.UserProfile) bool,
) (*domain.UserProfile, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if userID == session.UserID {
		return nil, apperrors.Validation("cannot follow yourself")
	}

	follower, err := s.load(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	followee, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !delta(follower, followee) {
		// Already in the requested state.
		return followee, nil
	}
	follower.Touch()
	followee.Touch()

	batch := s.store.NewBatch()
	if err := s.store.Profiles.Stage(batch, store.ProfilePath(follower.UserID), follower); err != nil {
		return nil, err
	}
	if err := s.store.Profiles.Stage(batch, store.ProfilePath(followee.UserID), followee); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("change follow edge", err)
	}

	return followee, nil
}

func (s *SocialService) load(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.store.Profiles.Get(ctx, store.ProfilePath(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("profile %s not found", userID)
		}
		return nil, err
	}
	return profile, nil
}
