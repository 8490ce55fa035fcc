package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/knotspotapp/knotspot-server/internal/color"
	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/id"
	"github.com/knotspotapp/knotspot-server/internal/normalize"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// GroupService manages Groups and their membership. Membership changes
// never move content: spots and knots already scoped to a group stay where
// they are even when the member who placed them leaves.
type GroupService struct {
	store         *store.Store
	notifications *NotificationService
	logger        *slog.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(s *store.Store, notifications *NotificationService, logger *slog.Logger) *GroupService {
	return &GroupService{store: s, notifications: notifications, logger: logger}
}

// CreateGroupRequest carries the fields for a new Group.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=256"`
	Description string `json:"description" validate:"max=4096"`
}

// Create writes a new Group with the acting user as creator and sole member.
func (s *GroupService) Create(ctx context.Context, session domain.Session, req CreateGroupRequest) (*domain.Group, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	groupID, err := id.Generate("grp")
	if err != nil {
		return nil, fmt.Errorf("generate group id: %w", err)
	}

	group := domain.NewGroup(groupID, session.UserID, normalize.LocationName(req.Name))
	group.Description = normalize.Caption(req.Description)
	group.BadgeColor = color.ForGroup(group.ID)

	if err := s.store.Groups.Put(ctx, store.GroupPath(group.ID), group); err != nil {
		return nil, storeWriteError("create group", err)
	}

	s.logger.Info("group created", "group_id", group.ID, "creator_id", group.CreatorID)
	return group, nil
}

// Get returns a Group the acting user belongs to.
func (s *GroupService) Get(ctx context.Context, session domain.Session, groupID string) (*domain.Group, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(session.UserID) {
		return nil, apperrors.Forbidden("not a member of this group")
	}
	return group, nil
}

// ListMine returns every Group the acting user belongs to.
func (s *GroupService) ListMine(ctx context.Context, session domain.Session) ([]*domain.Group, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return memberGroups(ctx, s.store, session.UserID)
}

// AddMember invites a user into the Group and best-effort notifies them.
func (s *GroupService) AddMember(ctx context.Context, session domain.Session, groupID, userID string) (*domain.Group, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(session.UserID) {
		return nil, apperrors.Forbidden("only members can add members")
	}

	// The invitee must be a real account.
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("user %s not found", userID)
		}
		return nil, err
	}

	if !group.AddMember(userID) {
		return group, nil
	}
	group.Touch()

	if err := s.store.Groups.Put(ctx, store.GroupPath(group.ID), group); err != nil {
		return nil, storeWriteError("add group member", err)
	}

	s.notifications.notify(ctx, &domain.Notification{
		RecipientID: userID,
		ActorID:     session.UserID,
		Kind:        domain.NotificationGroupInvite,
		GroupID:     group.ID,
	})

	return group, nil
}

// RemoveMember removes a user from the Group. The creator is never
// removable, nor is the last remaining member. Content the departing member
// placed in the group is left untouched.
func (s *GroupService) RemoveMember(ctx context.Context, session domain.Session, groupID, userID string) (*domain.Group, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	// Members may leave on their own; the creator may remove anyone else.
	if session.UserID != userID && session.UserID != group.CreatorID {
		return nil, apperrors.Forbidden("only the creator can remove other members")
	}
	if !group.IsMember(userID) {
		return nil, apperrors.NotFoundf("user %s is not a member", userID)
	}
	if !group.CanRemoveMember(userID) {
		return nil, apperrors.Conflict("this member cannot be removed")
	}

	group.RemoveMember(userID)
	group.Touch()

	if err := s.store.Groups.Put(ctx, store.GroupPath(group.ID), group); err != nil {
		return nil, storeWriteError("remove group member", err)
	}
	return group, nil
}

func (s *GroupService) load(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := s.store.Groups.Get(ctx, store.GroupPath(groupID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("group %s not found", groupID)
		}
		return nil, err
	}
	return group, nil
}
