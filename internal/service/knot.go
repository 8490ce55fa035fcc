package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/id"
	"github.com/knotspotapp/knotspot-server/internal/media/images"
	"github.com/knotspotapp/knotspot-server/internal/normalize"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// KnotService owns Knot mutations and the Spot↔Knot link operations. Links
// are written as matched pairs in one batch so the bidirectional symmetry
// invariant holds after every completed operation.
type KnotService struct {
	store   *store.Store
	spots   *SpotService
	cascade *CascadeHandler
	logger  *slog.Logger
}

// NewKnotService creates a new knot service.
func NewKnotService(s *store.Store, spots *SpotService, cascade *CascadeHandler, logger *slog.Logger) *KnotService {
	return &KnotService{
		store:   s,
		spots:   spots,
		cascade: cascade,
		logger:  logger,
	}
}

// CreateKnotRequest carries the fields for a new Knot. Internal status
// requires a group id; public and private forbid one.
type CreateKnotRequest struct {
	Name           string    `json:"name" validate:"required,max=256"`
	Description    string    `json:"description" validate:"max=4096"`
	Status         string    `json:"status" validate:"required,oneof=public private internal"`
	GroupID        string    `json:"group_id"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	CoverImageData string    `json:"cover_image_data"`
}

// UpdateKnotRequest is a partial edit; status or group changes move the
// Knot between scopes.
type UpdateKnotRequest struct {
	Name           *string    `json:"name" validate:"omitempty,max=256"`
	Description    *string    `json:"description" validate:"omitempty,max=4096"`
	Status         *string    `json:"status" validate:"omitempty,oneof=public private internal"`
	GroupID        *string    `json:"group_id"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	CoverImageData *string    `json:"cover_image_data"`
}

// Create writes the Knot's copies per its placement in one batch.
func (s *KnotService) Create(ctx context.Context, session domain.Session, req CreateKnotRequest) (*domain.Knot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	status := domain.KnotStatus(req.Status)
	if err := s.checkStatusGroup(status, req.GroupID); err != nil {
		return nil, err
	}
	if status == domain.KnotStatusInternal {
		if err := s.spots.requireMembership(ctx, session.UserID, req.GroupID); err != nil {
			return nil, err
		}
	}

	knotID, err := id.Generate("knot")
	if err != nil {
		return nil, fmt.Errorf("generate knot id: %w", err)
	}

	knot := &domain.Knot{
		OwnerID:        session.UserID,
		Name:           normalize.LocationName(req.Name),
		Description:    normalize.Caption(req.Description),
		Status:         status,
		GroupID:        req.GroupID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CoverImageData: req.CoverImageData,
		SpotIDs:        []string{},
	}
	knot.ID = knotID
	knot.InitTimestamps()
	if !knot.ValidDateRange() {
		return nil, apperrors.Validation("start_date must not be after end_date")
	}
	s.attachBlurhash(knot)

	newP := knot.Placement()
	batch := s.store.NewBatch()
	if err := s.stagePlacement(batch, knot, domain.ResolvePlacement(nil, &newP)); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("create knot", err)
	}

	s.logger.Info("knot created", "knot_id", knot.ID, "owner_id", knot.OwnerID, "status", knot.Status)
	return knot, nil
}

// Get returns a Knot visible to the acting user.
func (s *KnotService) Get(ctx context.Context, session domain.Session, knotID string) (*domain.Knot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.find(ctx, session, knotID)
}

// Update edits a Knot at every live copy, moving copies between scopes when
// status or group changes.
func (s *KnotService) Update(ctx context.Context, session domain.Session, knotID string, req UpdateKnotRequest) (*domain.Knot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	knot, err := s.find(ctx, session, knotID)
	if err != nil {
		return nil, err
	}
	if knot.OwnerID != session.UserID {
		return nil, apperrors.Forbidden("only the owner can edit a knot")
	}

	oldP := knot.Placement()

	if req.Name != nil {
		knot.Name = normalize.LocationName(*req.Name)
	}
	if req.Description != nil {
		knot.Description = normalize.Caption(*req.Description)
	}
	if req.StartDate != nil {
		knot.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		knot.EndDate = *req.EndDate
	}
	if req.CoverImageData != nil {
		knot.CoverImageData = *req.CoverImageData
		knot.CoverBlurhash = ""
		s.attachBlurhash(knot)
	}
	if req.Status != nil {
		knot.Status = domain.KnotStatus(*req.Status)
	}
	if req.GroupID != nil {
		knot.GroupID = *req.GroupID
	}
	if !knot.ValidDateRange() {
		return nil, apperrors.Validation("start_date must not be after end_date")
	}
	if err := s.checkStatusGroup(knot.Status, knot.GroupID); err != nil {
		return nil, err
	}
	if knot.Status == domain.KnotStatusInternal {
		if err := s.spots.requireMembership(ctx, session.UserID, knot.GroupID); err != nil {
			return nil, err
		}
	}
	knot.Touch()

	newP := knot.Placement()
	batch := s.store.NewBatch()
	if err := s.stagePlacement(batch, knot, domain.ResolvePlacement(&oldP, &newP)); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("update knot", err)
	}

	return knot, nil
}

// Delete removes the Knot's copies and strips its id from every Spot that
// lists it, via the cascade handler.
func (s *KnotService) Delete(ctx context.Context, session domain.Session, knotID string) error {
	if err := requireSession(session); err != nil {
		return err
	}

	knot, err := s.find(ctx, session, knotID)
	if err != nil {
		return err
	}
	if knot.OwnerID != session.UserID {
		return apperrors.Forbidden("only the owner can delete a knot")
	}

	return s.cascade.DeleteKnot(ctx, knot)
}

// AddSpot links a Spot into a Knot: the matched back-reference pair is
// written to every live copy of both entities in one atomic batch.
func (s *KnotService) AddSpot(ctx context.Context, session domain.Session, knotID, spotID string) (*domain.Knot, error) {
	return s.changeLink(ctx, session, knotID, spotID, domain.LinkSpotKnot)
}

// RemoveSpot unlinks a Spot from a Knot, same pairing rules as AddSpot.
func (s *KnotService) RemoveSpot(ctx context.Context, session domain.Session, knotID, spotID string) (*domain.Knot, error) {
	return s.changeLink(ctx, session, knotID, spotID, domain.UnlinkSpotKnot)
}

func (s *KnotService) changeLink(
	ctx context.Context,
	session domain.Session,
	knotID, spotID string,
	delta func(*domain.Spot, *domain.Knot) bool,
) (*domain.Knot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	knot, err := s.find(ctx, session, knotID)
	if err != nil {
		return nil, err
	}
	if knot.OwnerID != session.UserID {
		return nil, apperrors.Forbidden("only the owner can change a knot's spots")
	}

	spot, err := s.spots.find(ctx, session, spotID)
	if err != nil {
		return nil, err
	}

	if !delta(spot, knot) {
		// Already in the requested state; set semantics make this a no-op.
		return knot, nil
	}
	spot.Touch()
	knot.Touch()

	batch := s.store.NewBatch()
	if err := s.spots.stageLiveCopies(batch, spot); err != nil {
		return nil, err
	}
	if err := s.stageLiveCopies(batch, knot); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("change spot-knot link", err)
	}

	return knot, nil
}

// find locates a Knot copy visible to the acting user.
func (s *KnotService) find(ctx context.Context, session domain.Session, knotID string) (*domain.Knot, error) {
	scopes, err := visibleScopes(ctx, s.store, session.UserID)
	if err != nil {
		return nil, err
	}

	for _, scope := range scopes {
		knot, err := s.store.Knots.Get(ctx, store.KnotPath(scope, knotID))
		if err == nil {
			return knot, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.NotFoundf("knot %s not found", knotID)
}

// checkStatusGroup enforces the status/group pairing: internal knots need a
// group, public and private ones must not carry one.
func (s *KnotService) checkStatusGroup(status domain.KnotStatus, groupID string) error {
	if status == domain.KnotStatusInternal && groupID == "" {
		return apperrors.Validation("an internal knot requires a group")
	}
	if status != domain.KnotStatusInternal && groupID != "" {
		return apperrors.Validation("only internal knots belong to a group")
	}
	return nil
}

func (s *KnotService) stagePlacement(batch *store.Batch, knot *domain.Knot, ops []domain.PlacementOp) error {
	for _, op := range ops {
		path := store.KnotPath(op.Scope, knot.ID)
		if op.Op == domain.PlacementDelete {
			batch.StageDelete(path)
			continue
		}
		if err := s.store.Knots.Stage(batch, path, knot); err != nil {
			return err
		}
	}
	return nil
}

func (s *KnotService) stageLiveCopies(batch *store.Batch, knot *domain.Knot) error {
	p := knot.Placement()
	for _, scope := range p.LiveScopes() {
		if err := s.store.Knots.Stage(batch, store.KnotPath(scope, knot.ID), knot); err != nil {
			return err
		}
	}
	return nil
}

func (s *KnotService) attachBlurhash(knot *domain.Knot) {
	if knot.CoverImageData == "" {
		return
	}
	hash, err := images.ComputeBlurHashFromDataURI(knot.CoverImageData)
	if err != nil {
		s.logger.Debug("blurhash computation failed", "knot_id", knot.ID, "error", err)
		return
	}
	knot.CoverBlurhash = hash
}
