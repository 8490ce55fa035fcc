package service

import (
	"context"

	"github.com/knotspotapp/knotspot-server/internal/config"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// InstanceInfo describes this server to clients discovering it.
type InstanceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	UserCount   int    `json:"user_count"`
}

// Version is the server release string, overridable at build time with
// -ldflags "-X ...service.Version=v1.2.3".
var Version = "dev"

// InstanceService reports instance metadata for discovery and health.
type InstanceService struct {
	store *store.Store
	cfg   *config.Config
}

// NewInstanceService creates a new instance service.
func NewInstanceService(s *store.Store, cfg *config.Config) *InstanceService {
	return &InstanceService{store: s, cfg: cfg}
}

// Info returns the instance descriptor.
func (s *InstanceService) Info(ctx context.Context) (*InstanceInfo, error) {
	users, err := s.store.Users.Query(ctx, "accounts/")
	if err != nil {
		return nil, err
	}

	return &InstanceInfo{
		Name:        s.cfg.Server.Name,
		Version:     Version,
		Environment: s.cfg.App.Environment,
		UserCount:   len(users),
	}, nil
}
