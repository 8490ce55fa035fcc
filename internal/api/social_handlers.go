package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/{userId}",
		Summary:     "Get profile",
		Description: "Returns a user's public profile with follower and following lists.",
		Tags:        []string{"Social"},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "followUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/profiles/{userId}/follow",
		Summary:     "Follow user",
		Description: "Follows the user. Both profiles update atomically; already following is a no-op.",
		Tags:        []string{"Social"},
	}, s.handleFollowUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfollowUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/profiles/{userId}/follow",
		Summary:     "Unfollow user",
		Description: "Unfollows the user. Both profiles update atomically; not following is a no-op.",
		Tags:        []string{"Social"},
	}, s.handleUnfollowUser)
}

// ProfileIDInput identifies a profile by its owner's user ID.
type ProfileIDInput struct {
	UserID string `path:"userId" doc:"Profile owner's user ID"`
}

// ProfileOutput wraps a single profile for Huma.
type ProfileOutput struct {
	Body *domain.UserProfile
}

func (s *Server) handleGetProfile(ctx context.Context, input *ProfileIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Social.GetProfile(ctx, getSession(ctx), input.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleFollowUser(ctx context.Context, input *ProfileIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Social.Follow(ctx, getSession(ctx), input.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleUnfollowUser(ctx context.Context, input *ProfileIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Social.Unfollow(ctx, getSession(ctx), input.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}
