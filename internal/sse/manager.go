package sse

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/knotspotapp/knotspot-server/internal/id"
)

// ErrShuttingDown is returned by Connect once Shutdown has begun.
var ErrShuttingDown = errors.New("sse manager is shutting down")

// Client represents one connected SSE stream. Each client carries its own
// event channel fed by that viewer's feed subscriptions; there is no shared
// broadcast bus because every composed view is per-viewer anyway.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	UserID      string

	closeOnce sync.Once
}

// Send queues an event for the client without blocking. Returns false when
// the client's buffer is full and the event was dropped.
func (c *Client) Send(event Event) bool {
	select {
	case c.EventChan <- event:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

// Manager tracks connected SSE clients so the server can report on them and
// close them all on shutdown.
type Manager struct {
	clients map[string]*Client
	logger  *slog.Logger
	mu      sync.RWMutex

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Connect registers a new SSE client for a viewer.
func (m *Manager) Connect(userID string) (*Client, error) {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()
	if m.shutdown {
		return nil, ErrShuttingDown
	}

	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		UserID:      userID,
		EventChan:   make(chan Event, 64),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("user_id", userID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and signals its stream loop to exit.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	client.close()

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Shutdown refuses new connections and closes every open stream.
func (m *Manager) Shutdown() {
	m.shutdownMu.Lock()
	m.shutdown = true
	m.shutdownMu.Unlock()

	m.mu.Lock()
	for _, client := range m.clients {
		client.close()
	}
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	m.logger.Info("all SSE clients disconnected")
}
