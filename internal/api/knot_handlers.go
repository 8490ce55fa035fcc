package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

func (s *Server) registerKnotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createKnot",
		Method:      http.MethodPost,
		Path:        "/api/v1/knots",
		Summary:     "Create knot",
		Description: "Creates a knot collection in the scope its status and group call for.",
		Tags:        []string{"Knots"},
	}, s.handleCreateKnot)

	huma.Register(s.api, huma.Operation{
		OperationID: "getKnot",
		Method:      http.MethodGet,
		Path:        "/api/v1/knots/{id}",
		Summary:     "Get knot",
		Description: "Returns a knot the viewer can see.",
		Tags:        []string{"Knots"},
	}, s.handleGetKnot)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateKnot",
		Method:      http.MethodPatch,
		Path:        "/api/v1/knots/{id}",
		Summary:     "Update knot",
		Description: "Applies a partial edit. Status or group changes move the knot between scopes.",
		Tags:        []string{"Knots"},
	}, s.handleUpdateKnot)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteKnot",
		Method:      http.MethodDelete,
		Path:        "/api/v1/knots/{id}",
		Summary:     "Delete knot",
		Description: "Deletes the knot and unlinks it from every member spot.",
		Tags:        []string{"Knots"},
	}, s.handleDeleteKnot)

	huma.Register(s.api, huma.Operation{
		OperationID: "addKnotSpot",
		Method:      http.MethodPost,
		Path:        "/api/v1/knots/{id}/spots/{spotId}",
		Summary:     "Add spot to knot",
		Description: "Links a spot into the knot. Both sides of the reference update atomically.",
		Tags:        []string{"Knots"},
	}, s.handleAddKnotSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeKnotSpot",
		Method:      http.MethodDelete,
		Path:        "/api/v1/knots/{id}/spots/{spotId}",
		Summary:     "Remove spot from knot",
		Description: "Unlinks a spot from the knot. Both sides of the reference update atomically.",
		Tags:        []string{"Knots"},
	}, s.handleRemoveKnotSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "listKnotSpots",
		Method:      http.MethodGet,
		Path:        "/api/v1/knots/{id}/spots",
		Summary:     "List knot spots",
		Description: "Returns the knot's member spots that still exist, dangling references dropped.",
		Tags:        []string{"Knots"},
	}, s.handleListKnotSpots)
}

// === DTOs ===

// CreateKnotRequest is the request body for creating a knot.
type CreateKnotRequest struct {
	Name           string    `json:"name" validate:"required,max=256" doc:"Knot name"`
	Description    string    `json:"description,omitempty" validate:"max=4096" doc:"Description text"`
	Status         string    `json:"status" validate:"required,oneof=public private internal" doc:"public, private, or internal (group-only)"`
	GroupID        string    `json:"group_id,omitempty" doc:"Group scope, required for internal status"`
	StartDate      time.Time `json:"start_date" validate:"required" doc:"Collection start date"`
	EndDate        time.Time `json:"end_date" validate:"required" doc:"Collection end date"`
	CoverImageData string    `json:"cover_image_data,omitempty" doc:"Cover image bytes, base64"`
}

// CreateKnotInput wraps the create request for Huma.
type CreateKnotInput struct {
	Body CreateKnotRequest
}

// UpdateKnotRequest is a partial edit; absent fields are left untouched.
type UpdateKnotRequest struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,max=256" doc:"New name"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=4096" doc:"New description"`
	Status         *string    `json:"status,omitempty" validate:"omitempty,oneof=public private internal" doc:"New status"`
	GroupID        *string    `json:"group_id,omitempty" doc:"New group, empty string moves the knot out of its group"`
	StartDate      *time.Time `json:"start_date,omitempty" doc:"New start date"`
	EndDate        *time.Time `json:"end_date,omitempty" doc:"New end date"`
	CoverImageData *string    `json:"cover_image_data,omitempty" doc:"New cover image bytes, base64"`
}

// UpdateKnotInput wraps the update request for Huma.
type UpdateKnotInput struct {
	ID   string `path:"id" doc:"Knot ID"`
	Body UpdateKnotRequest
}

// KnotIDInput identifies a knot by path.
type KnotIDInput struct {
	ID string `path:"id" doc:"Knot ID"`
}

// KnotSpotInput identifies a spot membership on a knot.
type KnotSpotInput struct {
	ID     string `path:"id" doc:"Knot ID"`
	SpotID string `path:"spotId" doc:"Spot ID"`
}

// KnotOutput wraps a single knot for Huma.
type KnotOutput struct {
	Body *domain.Knot
}

// SpotListOutput wraps a list of spots for Huma.
type SpotListOutput struct {
	Body []*domain.Spot
}

// === Handlers ===

func (s *Server) handleCreateKnot(ctx context.Context, input *CreateKnotInput) (*KnotOutput, error) {
	knot, err := s.services.Knot.Create(ctx, getSession(ctx), service.CreateKnotRequest{
		Name:           input.Body.Name,
		Description:    input.Body.Description,
		Status:         input.Body.Status,
		GroupID:        input.Body.GroupID,
		StartDate:      input.Body.StartDate,
		EndDate:        input.Body.EndDate,
		CoverImageData: input.Body.CoverImageData,
	})
	if err != nil {
		return nil, err
	}
	return &KnotOutput{Body: knot}, nil
}

func (s *Server) handleGetKnot(ctx context.Context, input *KnotIDInput) (*KnotOutput, error) {
	knot, err := s.services.Knot.Get(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &KnotOutput{Body: knot}, nil
}

func (s *Server) handleUpdateKnot(ctx context.Context, input *UpdateKnotInput) (*KnotOutput, error) {
	knot, err := s.services.Knot.Update(ctx, getSession(ctx), input.ID, service.UpdateKnotRequest{
		Name:           input.Body.Name,
		Description:    input.Body.Description,
		Status:         input.Body.Status,
		GroupID:        input.Body.GroupID,
		StartDate:      input.Body.StartDate,
		EndDate:        input.Body.EndDate,
		CoverImageData: input.Body.CoverImageData,
	})
	if err != nil {
		return nil, err
	}
	return &KnotOutput{Body: knot}, nil
}

func (s *Server) handleDeleteKnot(ctx context.Context, input *KnotIDInput) (*MessageOutput, error) {
	if err := s.services.Knot.Delete(ctx, getSession(ctx), input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "knot deleted"}}, nil
}

func (s *Server) handleAddKnotSpot(ctx context.Context, input *KnotSpotInput) (*KnotOutput, error) {
	knot, err := s.services.Knot.AddSpot(ctx, getSession(ctx), input.ID, input.SpotID)
	if err != nil {
		return nil, err
	}
	return &KnotOutput{Body: knot}, nil
}

func (s *Server) handleRemoveKnotSpot(ctx context.Context, input *KnotSpotInput) (*KnotOutput, error) {
	knot, err := s.services.Knot.RemoveSpot(ctx, getSession(ctx), input.ID, input.SpotID)
	if err != nil {
		return nil, err
	}
	return &KnotOutput{Body: knot}, nil
}

func (s *Server) handleListKnotSpots(ctx context.Context, input *KnotIDInput) (*SpotListOutput, error) {
	session := getSession(ctx)
	knot, err := s.services.Knot.Get(ctx, session, input.ID)
	if err != nil {
		return nil, err
	}

	spots, err := s.services.Feed.FilterLiveSpotIDs(ctx, session, knot)
	if err != nil {
		return nil, err
	}
	return &SpotListOutput{Body: spots}, nil
}
