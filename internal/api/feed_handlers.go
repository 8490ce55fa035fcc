package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/sse"
)

// registerFeedRoutes mounts the SSE stream endpoints directly on the router.
// Streaming responses bypass the envelope; each frame carries one event.
func (s *Server) registerFeedRoutes() {
	s.router.Get("/api/v1/feed/spots/stream", s.handleSpotsStream)
	s.router.Get("/api/v1/feed/knots/stream", s.handleKnotsStream)
	s.router.Get("/api/v1/feed/notifications/stream", s.handleNotificationsStream)
}

// handleSpotsStream streams the viewer's composed spot feed. Every change in
// any visible scope pushes a fresh full snapshot.
func (s *Server) handleSpotsStream(w http.ResponseWriter, r *http.Request) {
	session, client, ok := s.openFeedClient(w, r)
	if !ok {
		return
	}
	defer s.sseManager.Disconnect(client.ID)

	unsubscribe, err := s.services.Feed.SubscribeSpots(r.Context(), session,
		func(spots []*domain.Spot) {
			if !client.Send(sse.NewSpotsSnapshotEvent(spots)) {
				s.logger.Warn("spot snapshot dropped, slow client", "client_id", client.ID)
			}
		},
		func(err error) {
			s.logger.Error("spot feed subscription failed", "client_id", client.ID, "error", err)
		},
	)
	if err != nil {
		writeStreamError(w, err)
		return
	}
	defer unsubscribe()

	s.pumpFeed(w, r, client)
}

// handleKnotsStream is the knot view of the composed feed.
func (s *Server) handleKnotsStream(w http.ResponseWriter, r *http.Request) {
	session, client, ok := s.openFeedClient(w, r)
	if !ok {
		return
	}
	defer s.sseManager.Disconnect(client.ID)

	unsubscribe, err := s.services.Feed.SubscribeKnots(r.Context(), session,
		func(knots []*domain.Knot) {
			if !client.Send(sse.NewKnotsSnapshotEvent(knots)) {
				s.logger.Warn("knot snapshot dropped, slow client", "client_id", client.ID)
			}
		},
		func(err error) {
			s.logger.Error("knot feed subscription failed", "client_id", client.ID, "error", err)
		},
	)
	if err != nil {
		writeStreamError(w, err)
		return
	}
	defer unsubscribe()

	s.pumpFeed(w, r, client)
}

// handleNotificationsStream streams the viewer's notification list.
func (s *Server) handleNotificationsStream(w http.ResponseWriter, r *http.Request) {
	session, client, ok := s.openFeedClient(w, r)
	if !ok {
		return
	}
	defer s.sseManager.Disconnect(client.ID)

	unsubscribe, err := s.services.Feed.SubscribeNotifications(r.Context(), session,
		func(notifications []*domain.Notification) {
			if !client.Send(sse.NewNotificationsEvent(notifications)) {
				s.logger.Warn("notification snapshot dropped, slow client", "client_id", client.ID)
			}
		},
		func(err error) {
			s.logger.Error("notification feed subscription failed", "client_id", client.ID, "error", err)
		},
	)
	if err != nil {
		writeStreamError(w, err)
		return
	}
	defer unsubscribe()

	s.pumpFeed(w, r, client)
}

// openFeedClient authenticates the request and registers an SSE client.
func (s *Server) openFeedClient(w http.ResponseWriter, r *http.Request) (domain.Session, *sse.Client, bool) {
	session := getSession(r.Context())
	if !session.Valid() {
		writeJSONError(w, http.StatusUnauthorized, "Authentication required")
		return domain.Session{}, nil, false
	}

	client, err := s.sseManager.Connect(session.UserID)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return domain.Session{}, nil, false
	}

	return session, client, true
}

// pumpFeed opens the SSE stream and forwards client events until disconnect.
func (s *Server) pumpFeed(w http.ResponseWriter, r *http.Request, client *sse.Client) {
	stream, err := sse.OpenStream(w, s.logger)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	s.logger.Info("sse client connected",
		"client_id", client.ID,
		"user_id", client.UserID,
		"ip", getClientIP(r),
		"path", r.URL.Path,
	)

	stream.Pump(r, client)

	s.logger.Info("sse client disconnected", "client_id", client.ID)
}

// writeStreamError maps a subscription error onto a plain enveloped response
// before the stream has opened.
func writeStreamError(w http.ResponseWriter, err error) {
	statusErr := toAPIError(err)
	writeJSONError(w, statusErr.GetStatus(), statusErr.Message)
}

// writeJSONError writes an error envelope outside huma's pipeline.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, &simpleErrorEnvelope{
		Version: envelopeVersion,
		Success: false,
		Error:   message,
	})
}
