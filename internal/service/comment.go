package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/id"
	"github.com/knotspotapp/knotspot-server/internal/normalize"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// CommentService appends comments to a Spot's comment sub-scope. The
// CommentCount increment on every live Spot copy rides in the same atomic
// batch as the comment append, which is the only thing keeping the count
// honest without any locking.
type CommentService struct {
	store         *store.Store
	spots         *SpotService
	notifications *NotificationService
	logger        *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(s *store.Store, spots *SpotService, notifications *NotificationService, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:         s,
		spots:         spots,
		notifications: notifications,
		logger:        logger,
	}
}

// AddCommentRequest carries a new comment body. HTML paste is normalized to
// markdown before storage.
type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=8192"`
}

// Add appends a comment and increments the count, then best-effort notifies
// the Spot owner when someone else commented.
func (s *CommentService) Add(ctx context.Context, session domain.Session, spotID string, req AddCommentRequest) (*domain.Comment, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	body := normalize.BodyMarkdown(req.Body)
	if body == "" {
		return nil, apperrors.Validation("body is empty after normalization")
	}

	spot, err := s.spots.find(ctx, session, spotID)
	if err != nil {
		return nil, err
	}

	commentID, err := id.Generate("cmt")
	if err != nil {
		return nil, fmt.Errorf("generate comment id: %w", err)
	}

	comment := &domain.Comment{
		SpotID:   spot.ID,
		AuthorID: session.UserID,
		Body:     body,
	}
	comment.ID = commentID
	comment.InitTimestamps()

	spot.CommentCount++
	spot.Touch()

	batch := s.store.NewBatch()
	if err := s.store.Comments.Stage(batch, store.CommentPath(spot.ID, comment.ID), comment); err != nil {
		return nil, err
	}
	if err := s.spots.stageLiveCopies(batch, spot); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("add comment", err)
	}

	if spot.OwnerID != session.UserID {
		s.notifications.notify(ctx, &domain.Notification{
			RecipientID: spot.OwnerID,
			ActorID:     session.UserID,
			Kind:        domain.NotificationComment,
			SpotID:      spot.ID,
		})
	}

	return comment, nil
}

// List returns a Spot's comments, oldest first.
func (s *CommentService) List(ctx context.Context, session domain.Session, spotID string) ([]*domain.Comment, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	// The Spot must be visible to the caller before its comments are.
	if _, err := s.spots.find(ctx, session, spotID); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments.Query(ctx, store.CommentsPrefix(spotID))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(comments, func(a, b *domain.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return comments, nil
}
