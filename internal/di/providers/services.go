package providers

import (
	"github.com/samber/do/v2"

	"github.com/knotspotapp/knotspot-server/internal/auth"
	"github.com/knotspotapp/knotspot-server/internal/config"
	"github.com/knotspotapp/knotspot-server/internal/logger"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

// ProvideInstanceService provides the server instance service.
func ProvideInstanceService(i do.Injector) (*service.InstanceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)

	return service.NewInstanceService(storeHandle.Store, cfg), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideCascadeHandler provides the cascade delete handler.
func ProvideCascadeHandler(i do.Injector) (*service.CascadeHandler, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	journalHandle := do.MustInvoke[*JournalHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCascadeHandler(storeHandle.Store, journalHandle.Journal, log.Logger), nil
}

// ProvideNotificationService provides the notification service.
func ProvideNotificationService(i do.Injector) (*service.NotificationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNotificationService(storeHandle.Store, log.Logger), nil
}

// ProvideSpotService provides the spot service.
func ProvideSpotService(i do.Injector) (*service.SpotService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	cascade := do.MustInvoke[*service.CascadeHandler](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSpotService(storeHandle.Store, notifications, cascade, log.Logger), nil
}

// ProvideKnotService provides the knot service.
func ProvideKnotService(i do.Injector) (*service.KnotService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	spots := do.MustInvoke[*service.SpotService](i)
	cascade := do.MustInvoke[*service.CascadeHandler](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewKnotService(storeHandle.Store, spots, cascade, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	spots := do.MustInvoke[*service.SpotService](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, spots, notifications, log.Logger), nil
}

// ProvideGroupService provides the group service.
func ProvideGroupService(i do.Injector) (*service.GroupService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGroupService(storeHandle.Store, notifications, log.Logger), nil
}

// ProvideSocialService provides the social graph service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, log.Logger), nil
}

// ProvideFeedService provides the live feed composition service.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(storeHandle.Store, log.Logger), nil
}

// ProvideRepairService provides the cascade repair service.
func ProvideRepairService(i do.Injector) (*service.RepairService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	journalHandle := do.MustInvoke[*JournalHandle](i)
	cascade := do.MustInvoke[*service.CascadeHandler](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRepairService(storeHandle.Store, journalHandle.Journal, cascade, log.Logger), nil
}
