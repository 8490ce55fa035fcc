package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/knotspotapp/knotspot-server/internal/config"
	"github.com/knotspotapp/knotspot-server/internal/logger"
	"github.com/knotspotapp/knotspot-server/internal/repair"
	"github.com/knotspotapp/knotspot-server/internal/sse"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// SSEManagerHandle wraps the SSE manager for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.Manager.Shutdown()
	return nil
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)
	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Store.DataPath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// JournalHandle wraps the repair journal with shutdown capability.
type JournalHandle struct {
	*repair.Journal
}

// Shutdown implements do.Shutdownable.
func (h *JournalHandle) Shutdown() error {
	return h.Close()
}

// ProvideRepairJournal provides the cascade repair journal.
func ProvideRepairJournal(i do.Injector) (*JournalHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	journal, err := repair.Open(cfg.Repair.JournalPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Repair journal opened", "path", cfg.Repair.JournalPath)

	return &JournalHandle{Journal: journal}, nil
}
