package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/id"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// NotificationService reads a user's notification scope and appends the
// best-effort notifications other operations produce.
type NotificationService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(s *store.Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: s, logger: logger}
}

// List returns the acting user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, session domain.Session) ([]*domain.Notification, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	notifications, err := s.store.Notifications.Query(ctx, store.NotificationsPrefix(session.UserID))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(notifications, func(a, b *domain.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return notifications, nil
}

// MarkRead flips the read flag, the only mutation notifications allow.
func (s *NotificationService) MarkRead(ctx context.Context, session domain.Session, notificationID string) (*domain.Notification, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	path := store.NotificationPath(session.UserID, notificationID)
	notification, err := s.store.Notifications.Get(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("notification %s not found", notificationID)
		}
		return nil, err
	}

	if notification.Read {
		return notification, nil
	}

	notification.Read = true
	notification.Touch()
	if err := s.store.Notifications.Put(ctx, path, notification); err != nil {
		return nil, storeWriteError("mark notification read", err)
	}
	return notification, nil
}

// notify appends a notification to the recipient's scope. Best-effort: it
// runs only after the primary batch committed, and its failure is logged
// and swallowed rather than surfaced.
func (s *NotificationService) notify(ctx context.Context, n *domain.Notification) {
	notificationID, err := id.Generate("ntf")
	if err != nil {
		s.logger.Warn("notification dropped", "recipient_id", n.RecipientID, "error", err)
		return
	}
	n.ID = notificationID
	n.InitTimestamps()

	if err := s.store.Notifications.Put(ctx, store.NotificationPath(n.RecipientID, n.ID), n); err != nil {
		s.logger.Warn("notification dropped",
			"recipient_id", n.RecipientID,
			"kind", n.Kind,
			"error", err,
		)
	}
}
