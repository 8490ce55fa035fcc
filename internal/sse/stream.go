package sse

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Stream wraps a ResponseWriter for SSE frame output. The HTTP layer opens
// one per connection, then pumps events from a Client's channel through it.
type Stream struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *slog.Logger
}

// OpenStream sets the SSE headers and flushes them. Returns an error when
// the underlying writer does not support streaming.
func OpenStream(w http.ResponseWriter, logger *slog.Logger) (*Stream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("streaming not supported: %w", err)
	}

	return &Stream{w: w, rc: rc, logger: logger}, nil
}

// Send writes one SSE frame and flushes it.
func (s *Stream) Send(event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful write so a hung
	// connection eventually errors out instead of pinning a goroutine.
	if err := s.rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		s.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}

// Pump streams events from the client's channel until the request context
// ends, the manager closes the client, or a write fails. Heartbeats keep
// intermediaries from timing out idle connections.
func (s *Stream) Pump(r *http.Request, client *Client) {
	clientLogger := s.logger.With(slog.String("client_id", client.ID))

	if err := s.Send(Event{
		Type:      EventConnected,
		Data:      ConnectedData{ClientID: client.ID},
		Timestamp: time.Now(),
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case event := <-client.EventChan:
			if err := s.Send(event); err != nil {
				// Client disconnect is normal, not an error condition.
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			if err := s.Send(NewHeartbeatEvent()); err != nil {
				clientLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}
