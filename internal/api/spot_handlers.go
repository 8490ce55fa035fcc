package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

func (s *Server) registerSpotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSpot",
		Method:      http.MethodPost,
		Path:        "/api/v1/spots",
		Summary:     "Create spot",
		Description: "Creates a spot in the scope its visibility and group call for.",
		Tags:        []string{"Spots"},
	}, s.handleCreateSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSpot",
		Method:      http.MethodGet,
		Path:        "/api/v1/spots/{id}",
		Summary:     "Get spot",
		Description: "Returns a spot the viewer can see.",
		Tags:        []string{"Spots"},
	}, s.handleGetSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSpot",
		Method:      http.MethodPatch,
		Path:        "/api/v1/spots/{id}",
		Summary:     "Update spot",
		Description: "Applies a partial edit. Visibility or group changes move the spot between scopes.",
		Tags:        []string{"Spots"},
	}, s.handleUpdateSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSpot",
		Method:      http.MethodDelete,
		Path:        "/api/v1/spots/{id}",
		Summary:     "Delete spot",
		Description: "Deletes the spot, its copies, its comments, and every back-reference to it.",
		Tags:        []string{"Spots"},
	}, s.handleDeleteSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSpotLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/spots/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes the spot, or removes the viewer's existing like.",
		Tags:        []string{"Spots"},
	}, s.handleToggleSpotLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeSpotTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/spots/{id}/tags/{userId}",
		Summary:     "Remove tag",
		Description: "Removes a user tag from the spot. Tagged users may remove themselves.",
		Tags:        []string{"Spots"},
	}, s.handleRemoveSpotTag)
}

// === DTOs ===

// CreateSpotRequest is the request body for creating a spot.
type CreateSpotRequest struct {
	Caption        string         `json:"caption,omitempty" validate:"max=4096" doc:"Caption text, HTML is normalized to Markdown"`
	Visibility     string         `json:"visibility,omitempty" validate:"omitempty,oneof=public private" doc:"public or private, defaults to private"`
	GroupID        string         `json:"group_id,omitempty" doc:"Group to place the spot in, mutually exclusive with public visibility"`
	LocationName   string         `json:"location_name,omitempty" validate:"max=512" doc:"Free-form location name"`
	LocationCoord  *domain.LatLng `json:"location_coord,omitempty" doc:"Location coordinates"`
	TakenAt        time.Time      `json:"taken_at,omitempty" doc:"Capture time, defaults to now"`
	CoverImageData string         `json:"cover_image_data,omitempty" doc:"Cover image bytes, base64"`
	TaggedUsers    []string       `json:"tagged_users,omitempty" validate:"max=64" doc:"User IDs tagged in the spot"`
}

// CreateSpotInput wraps the create request for Huma.
type CreateSpotInput struct {
	Body CreateSpotRequest
}

// UpdateSpotRequest is a partial edit; absent fields are left untouched.
type UpdateSpotRequest struct {
	Caption        *string        `json:"caption,omitempty" validate:"omitempty,max=4096" doc:"New caption"`
	Visibility     *string        `json:"visibility,omitempty" validate:"omitempty,oneof=public private" doc:"New visibility"`
	GroupID        *string        `json:"group_id,omitempty" doc:"New group, empty string moves the spot out of its group"`
	LocationName   *string        `json:"location_name,omitempty" validate:"omitempty,max=512" doc:"New location name"`
	LocationCoord  *domain.LatLng `json:"location_coord,omitempty" doc:"New coordinates"`
	TakenAt        *time.Time     `json:"taken_at,omitempty" doc:"New capture time"`
	CoverImageData *string        `json:"cover_image_data,omitempty" doc:"New cover image bytes, base64"`
}

// UpdateSpotInput wraps the update request for Huma.
type UpdateSpotInput struct {
	ID   string `path:"id" doc:"Spot ID"`
	Body UpdateSpotRequest
}

// SpotIDInput identifies a spot by path.
type SpotIDInput struct {
	ID string `path:"id" doc:"Spot ID"`
}

// SpotTagInput identifies a tagged user on a spot.
type SpotTagInput struct {
	ID     string `path:"id" doc:"Spot ID"`
	UserID string `path:"userId" doc:"Tagged user ID"`
}

// SpotOutput wraps a single spot for Huma.
type SpotOutput struct {
	Body *domain.Spot
}

// === Handlers ===

func (s *Server) handleCreateSpot(ctx context.Context, input *CreateSpotInput) (*SpotOutput, error) {
	spot, err := s.services.Spot.Create(ctx, getSession(ctx), service.CreateSpotRequest{
		Caption:        input.Body.Caption,
		Visibility:     input.Body.Visibility,
		GroupID:        input.Body.GroupID,
		LocationName:   input.Body.LocationName,
		LocationCoord:  input.Body.LocationCoord,
		TakenAt:        input.Body.TakenAt,
		CoverImageData: input.Body.CoverImageData,
		TaggedUsers:    input.Body.TaggedUsers,
	})
	if err != nil {
		return nil, err
	}
	return &SpotOutput{Body: spot}, nil
}

func (s *Server) handleGetSpot(ctx context.Context, input *SpotIDInput) (*SpotOutput, error) {
	spot, err := s.services.Spot.Get(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &SpotOutput{Body: spot}, nil
}

func (s *Server) handleUpdateSpot(ctx context.Context, input *UpdateSpotInput) (*SpotOutput, error) {
	spot, err := s.services.Spot.Update(ctx, getSession(ctx), input.ID, service.UpdateSpotRequest{
		Caption:        input.Body.Caption,
		Visibility:     input.Body.Visibility,
		GroupID:        input.Body.GroupID,
		LocationName:   input.Body.LocationName,
		LocationCoord:  input.Body.LocationCoord,
		TakenAt:        input.Body.TakenAt,
		CoverImageData: input.Body.CoverImageData,
	})
	if err != nil {
		return nil, err
	}
	return &SpotOutput{Body: spot}, nil
}

func (s *Server) handleDeleteSpot(ctx context.Context, input *SpotIDInput) (*MessageOutput, error) {
	if err := s.services.Spot.Delete(ctx, getSession(ctx), input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "spot deleted"}}, nil
}

func (s *Server) handleToggleSpotLike(ctx context.Context, input *SpotIDInput) (*SpotOutput, error) {
	spot, err := s.services.Spot.ToggleLike(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &SpotOutput{Body: spot}, nil
}

func (s *Server) handleRemoveSpotTag(ctx context.Context, input *SpotTagInput) (*SpotOutput, error) {
	spot, err := s.services.Spot.RemoveTag(ctx, getSession(ctx), input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &SpotOutput{Body: spot}, nil
}
