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

// SpotService owns every Spot mutation. Each operation submits exactly one
// atomic batch; the best-effort notification writes ride after it.
type SpotService struct {
	store         *store.Store
	notifications *NotificationService
	cascade       *CascadeHandler
	logger        *slog.Logger
}

// NewSpotService creates a new spot service.
func NewSpotService(s *store.Store, notifications *NotificationService, cascade *CascadeHandler, logger *slog.Logger) *SpotService {
	return &SpotService{
		store:         s,
		notifications: notifications,
		cascade:       cascade,
		logger:        logger,
	}
}

// CreateSpotRequest carries the fields for a new Spot. A Spot placed in a
// group is never public: a set GroupID forces the visibility to private.
type CreateSpotRequest struct {
	Caption        string         `json:"caption" validate:"max=4096"`
	Visibility     string         `json:"visibility" validate:"omitempty,oneof=public private"`
	GroupID        string         `json:"group_id"`
	LocationName   string         `json:"location_name" validate:"max=512"`
	LocationCoord  *domain.LatLng `json:"location_coord"`
	TakenAt        time.Time      `json:"taken_at"`
	CoverImageData string         `json:"cover_image_data"`
	TaggedUsers    []string       `json:"tagged_users" validate:"max=64"`
}

// UpdateSpotRequest is a partial edit. Nil fields are left untouched.
// Changing Visibility or GroupID moves the Spot between scopes.
type UpdateSpotRequest struct {
	Caption        *string        `json:"caption" validate:"omitempty,max=4096"`
	Visibility     *string        `json:"visibility" validate:"omitempty,oneof=public private"`
	GroupID        *string        `json:"group_id"`
	LocationName   *string        `json:"location_name" validate:"omitempty,max=512"`
	LocationCoord  *domain.LatLng `json:"location_coord"`
	TakenAt        *time.Time     `json:"taken_at"`
	CoverImageData *string        `json:"cover_image_data"`
}

// Create writes the authoritative copy and, when the placement calls for
// one, the public copy, in a single batch.
func (s *SpotService) Create(ctx context.Context, session domain.Session, req CreateSpotRequest) (*domain.Spot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.GroupID != "" {
		if err := s.requireMembership(ctx, session.UserID, req.GroupID); err != nil {
			return nil, err
		}
	}

	spotID, err := id.Generate("spot")
	if err != nil {
		return nil, fmt.Errorf("generate spot id: %w", err)
	}

	// Group membership forces the internal state regardless of what the
	// visibility field was set to, same as on update.
	visibility := domain.Visibility(req.Visibility)
	if req.GroupID != "" || visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	spot := &domain.Spot{
		OwnerID:        session.UserID,
		Visibility:     visibility,
		GroupID:        req.GroupID,
		Caption:        normalize.Caption(req.Caption),
		LocationName:   normalize.LocationName(req.LocationName),
		LocationCoord:  req.LocationCoord,
		TakenAt:        req.TakenAt,
		CoverImageData: req.CoverImageData,
		KnotIDs:        []string{},
		TaggedUsers:    req.TaggedUsers,
	}
	spot.ID = spotID
	spot.InitTimestamps()
	if spot.TakenAt.IsZero() {
		spot.TakenAt = spot.CreatedAt
	}
	s.attachBlurhash(spot)

	newP := spot.Placement()
	batch := s.store.NewBatch()
	if err := s.stagePlacement(batch, spot, domain.ResolvePlacement(nil, &newP)); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("create spot", err)
	}

	s.logger.Info("spot created", "spot_id", spot.ID, "owner_id", spot.OwnerID, "group_id", spot.GroupID)
	return spot, nil
}

// Get returns a Spot visible to the acting user.
func (s *SpotService) Get(ctx context.Context, session domain.Session, spotID string) (*domain.Spot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.find(ctx, session, spotID)
}

// Update edits a Spot in place at every live copy. A visibility or group
// change additionally moves copies between scopes, all in the same batch.
func (s *SpotService) Update(ctx context.Context, session domain.Session, spotID string, req UpdateSpotRequest) (*domain.Spot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	spot, err := s.find(ctx, session, spotID)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID != session.UserID {
		return nil, apperrors.Forbidden("only the owner can edit a spot")
	}

	oldP := spot.Placement()

	if req.Caption != nil {
		spot.Caption = normalize.Caption(*req.Caption)
	}
	if req.LocationName != nil {
		spot.LocationName = normalize.LocationName(*req.LocationName)
	}
	if req.LocationCoord != nil {
		spot.LocationCoord = req.LocationCoord
	}
	if req.TakenAt != nil {
		spot.TakenAt = *req.TakenAt
	}
	if req.CoverImageData != nil {
		spot.CoverImageData = *req.CoverImageData
		spot.CoverBlurhash = ""
		s.attachBlurhash(spot)
	}
	if req.Visibility != nil {
		spot.Visibility = domain.Visibility(*req.Visibility)
	}
	if req.GroupID != nil {
		spot.GroupID = *req.GroupID
	}
	if spot.GroupID != "" {
		// Group membership forces the internal state regardless of what the
		// visibility field was set to.
		spot.Visibility = domain.VisibilityPrivate
		if err := s.requireMembership(ctx, session.UserID, spot.GroupID); err != nil {
			return nil, err
		}
	}
	spot.Touch()

	newP := spot.Placement()
	batch := s.store.NewBatch()
	if err := s.stagePlacement(batch, spot, domain.ResolvePlacement(&oldP, &newP)); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("update spot", err)
	}

	return spot, nil
}

// Delete removes every scope copy of the Spot plus all back-references on
// Knots that list it, via the cascade handler.
func (s *SpotService) Delete(ctx context.Context, session domain.Session, spotID string) error {
	if err := requireSession(session); err != nil {
		return err
	}

	spot, err := s.find(ctx, session, spotID)
	if err != nil {
		return err
	}
	if spot.OwnerID != session.UserID {
		return apperrors.Forbidden("only the owner can delete a spot")
	}

	return s.cascade.DeleteSpot(ctx, spot)
}

// ToggleLike flips the acting user's membership in the Spot's liker set on
// every live copy. A like (not an unlike) of someone else's Spot appends a
// best-effort notification for the owner after the batch commits.
func (s *SpotService) ToggleLike(ctx context.Context, session domain.Session, spotID string) (*domain.Spot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	spot, err := s.find(ctx, session, spotID)
	if err != nil {
		return nil, err
	}

	liked := spot.LikedBy(session.UserID)
	if liked {
		spot.RemoveLiker(session.UserID)
	} else {
		spot.AddLiker(session.UserID)
	}

	batch := s.store.NewBatch()
	if err := s.stageLiveCopies(batch, spot); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("toggle like", err)
	}

	if !liked && spot.OwnerID != session.UserID {
		s.notifications.notify(ctx, &domain.Notification{
			RecipientID: spot.OwnerID,
			ActorID:     session.UserID,
			Kind:        domain.NotificationLike,
			SpotID:      spot.ID,
		})
	}

	return spot, nil
}

// RemoveTag strips a profile tag from the Spot. One-sided: tags carry no
// profile back-reference. Allowed for the owner and for the tagged user.
func (s *SpotService) RemoveTag(ctx context.Context, session domain.Session, spotID, tag string) (*domain.Spot, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	spot, err := s.find(ctx, session, spotID)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID != session.UserID && session.ProfileTag != tag {
		return nil, apperrors.Forbidden("only the owner or the tagged user can remove a tag")
	}

	if !domain.RemoveTagDelta(spot, tag) {
		return spot, nil
	}

	batch := s.store.NewBatch()
	if err := s.stageLiveCopies(batch, spot); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, storeWriteError("remove tag", err)
	}

	return spot, nil
}

// find locates a Spot copy visible to the acting user: their own scope
// first, then the global public scope, then each group they belong to.
func (s *SpotService) find(ctx context.Context, session domain.Session, spotID string) (*domain.Spot, error) {
	scopes, err := visibleScopes(ctx, s.store, session.UserID)
	if err != nil {
		return nil, err
	}

	for _, scope := range scopes {
		spot, err := s.store.Spots.Get(ctx, store.SpotPath(scope, spotID))
		if err == nil {
			return spot, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.NotFoundf("spot %s not found", spotID)
}

// requireMembership checks that the group exists and the user belongs to it.
func (s *SpotService) requireMembership(ctx context.Context, userID, groupID string) error {
	group, err := s.store.Groups.Get(ctx, store.GroupPath(groupID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFoundf("group %s not found", groupID)
		}
		return err
	}
	if !group.IsMember(userID) {
		return apperrors.Forbidden("not a member of this group")
	}
	return nil
}

// stagePlacement stages the resolved placement ops for a Spot.
func (s *SpotService) stagePlacement(batch *store.Batch, spot *domain.Spot, ops []domain.PlacementOp) error {
	for _, op := range ops {
		path := store.SpotPath(op.Scope, spot.ID)
		if op.Op == domain.PlacementDelete {
			batch.StageDelete(path)
			continue
		}
		if err := s.store.Spots.Stage(batch, path, spot); err != nil {
			return err
		}
	}
	return nil
}

// stageLiveCopies stages the Spot at every scope where a copy currently
// exists, leaving placement untouched.
func (s *SpotService) stageLiveCopies(batch *store.Batch, spot *domain.Spot) error {
	p := spot.Placement()
	for _, scope := range p.LiveScopes() {
		if err := s.store.Spots.Stage(batch, store.SpotPath(scope, spot.ID), spot); err != nil {
			return err
		}
	}
	return nil
}

// attachBlurhash derives the compact placeholder from the cover image data.
// Failure only costs the placeholder, never the write.
func (s *SpotService) attachBlurhash(spot *domain.Spot) {
	if spot.CoverImageData == "" {
		return
	}
	hash, err := images.ComputeBlurHashFromDataURI(spot.CoverImageData)
	if err != nil {
		s.logger.Debug("blurhash computation failed", "spot_id", spot.ID, "error", err)
		return
	}
	spot.CoverBlurhash = hash
}

// storeWriteError maps batch failures to the retry-safe store-write code,
// passing already-typed domain errors through.
func storeWriteError(op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.StoreWrite(op+" failed", err)
}
