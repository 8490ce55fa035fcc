// Package mdns provides mDNS/Zeroconf service advertisement for Knotspot server discovery.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the mDNS service type for Knotspot servers.
	ServiceType = "_knotspot._tcp"

	// APIVersion is the current API version advertised in TXT records.
	APIVersion = "v1"
)

// Service manages mDNS advertisement through the local Avahi daemon.
// It allows local network discovery of the server without manual configuration.
type Service struct {
	conn   *dbus.Conn
	server *avahi.Server
	group  *avahi.EntryGroup
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising the server via mDNS. It should be called after
// the HTTP server is running. Errors are typically non-fatal, for example
// when no Avahi daemon is reachable inside a container.
func (s *Service) Start(name, version string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Tear down an existing registration on restart.
	s.stopLocked()

	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return fmt.Errorf("connect to avahi daemon: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return fmt.Errorf("create avahi entry group: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "knotspot-server"
	}

	txtRecords := [][]byte{
		[]byte("name=" + name),
		[]byte("version=" + version),
		[]byte("api=" + APIVersion),
	}

	err = group.AddService(
		avahi.InterfaceUnspec,
		avahi.ProtoUnspec,
		0,
		host,        // Instance name (hostname)
		ServiceType, // Service type (_knotspot._tcp)
		"",          // Domain (empty = .local)
		"",          // Host (empty = use system hostname)
		uint16(port),
		txtRecords,
	)
	if err != nil {
		server.Close()
		return fmt.Errorf("register mDNS service: %w", err)
	}

	if err := group.Commit(); err != nil {
		server.Close()
		return fmt.Errorf("commit mDNS registration: %w", err)
	}

	s.conn = conn
	s.server = server
	s.group = group

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", name,
	)

	return nil
}

// Stop stops mDNS advertising.
// Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		s.stopLocked()
		s.logger.Info("mDNS advertisement stopped")
	}
}

func (s *Service) stopLocked() {
	if s.group != nil {
		s.server.EntryGroupFree(s.group)
		s.group = nil
	}
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
	s.conn = nil
}
