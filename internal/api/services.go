package api

import (
	"github.com/knotspotapp/knotspot-server/internal/service"
)

// Services groups the service dependencies the HTTP layer needs.
type Services struct {
	Instance     *service.InstanceService
	Auth         *service.AuthService
	Spot         *service.SpotService
	Knot         *service.KnotService
	Comment      *service.CommentService
	Group        *service.GroupService
	Social       *service.SocialService
	Notification *service.NotificationService
	Feed         *service.FeedService
}
