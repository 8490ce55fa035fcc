package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/spots/{id}/comments",
		Summary:     "Add comment",
		Description: "Appends a comment to the spot. The comment count on every copy updates atomically.",
		Tags:        []string{"Comments"},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/spots/{id}/comments",
		Summary:     "List comments",
		Description: "Returns the spot's comments, oldest first.",
		Tags:        []string{"Comments"},
	}, s.handleListComments)
}

// AddCommentRequest is the request body for adding a comment.
type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=8192" doc:"Comment text, HTML is normalized to Markdown"`
}

// AddCommentInput wraps the comment request for Huma.
type AddCommentInput struct {
	ID   string `path:"id" doc:"Spot ID"`
	Body AddCommentRequest
}

// CommentOutput wraps a single comment for Huma.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentListOutput wraps a list of comments for Huma.
type CommentListOutput struct {
	Body []*domain.Comment
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Comment.Add(ctx, getSession(ctx), input.ID, service.AddCommentRequest{
		Body: input.Body.Body,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *SpotIDInput) (*CommentListOutput, error) {
	comments, err := s.services.Comment.List(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: comments}, nil
}
