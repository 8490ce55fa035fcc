package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns the caller's notifications, newest first.",
		Tags:        []string{"Notifications"},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark notification read",
		Description: "Marks one of the caller's notifications as read.",
		Tags:        []string{"Notifications"},
	}, s.handleMarkNotificationRead)
}

// NotificationIDInput identifies a notification by path.
type NotificationIDInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

// NotificationOutput wraps a single notification for Huma.
type NotificationOutput struct {
	Body *domain.Notification
}

// NotificationListOutput wraps a list of notifications for Huma.
type NotificationListOutput struct {
	Body []*domain.Notification
}

func (s *Server) handleListNotifications(ctx context.Context, _ *struct{}) (*NotificationListOutput, error) {
	notifications, err := s.services.Notification.List(ctx, getSession(ctx))
	if err != nil {
		return nil, err
	}
	return &NotificationListOutput{Body: notifications}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *NotificationIDInput) (*NotificationOutput, error) {
	notification, err := s.services.Notification.MarkRead(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &NotificationOutput{Body: notification}, nil
}
