// Package di provides dependency injection configuration for the Knotspot server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/knotspotapp/knotspot-server/internal/auth"
	"github.com/knotspotapp/knotspot-server/internal/config"
	"github.com/knotspotapp/knotspot-server/internal/di/providers"
	"github.com/knotspotapp/knotspot-server/internal/logger"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRepairJournal)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideInstanceService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCascadeHandler)
	do.Provide(injector, providers.ProvideNotificationService)
	do.Provide(injector, providers.ProvideSpotService)
	do.Provide(injector, providers.ProvideKnotService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideGroupService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideRepairService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.JournalHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.InstanceService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CascadeHandler](injector)
	_ = do.MustInvoke[*service.NotificationService](injector)
	_ = do.MustInvoke[*service.SpotService](injector)
	_ = do.MustInvoke[*service.KnotService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.GroupService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.RepairService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
