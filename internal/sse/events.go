// Package sse implements Server-Sent Events for live feed streaming.
package sse

import (
	"time"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// Each connection carries its own composed view, so events are pushed to a
// single client rather than broadcast. Full bidirectional communication may
// be implemented with WebSockets in the future if needed.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first event on a new stream.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventSpotsSnapshot carries a full composed Spot feed snapshot.
	EventSpotsSnapshot EventType = "feed.spots"
	// EventKnotsSnapshot carries a full composed Knot feed snapshot.
	EventKnotsSnapshot EventType = "feed.knots"
	// EventNotifications carries the viewer's notification list.
	EventNotifications EventType = "notifications"
)

// Event represents an SSE event to be sent to a client.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// SpotsSnapshotData is the payload for Spot feed snapshots. Snapshots are
// complete result sets, not deltas; the client replaces its local view.
type SpotsSnapshotData struct {
	Spots []*domain.Spot `json:"spots"`
}

// KnotsSnapshotData is the payload for Knot feed snapshots.
type KnotsSnapshotData struct {
	Knots []*domain.Knot `json:"knots"`
}

// NotificationsData is the payload for notification snapshots.
type NotificationsData struct {
	Notifications []*domain.Notification `json:"notifications"`
}

// ConnectedData is the payload for the stream-opened event.
type ConnectedData struct {
	ClientID string `json:"client_id"`
}

// HeartbeatData is the payload for heartbeat events.
type HeartbeatData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSpotsSnapshotEvent creates a Spot feed snapshot event.
func NewSpotsSnapshotEvent(spots []*domain.Spot) Event {
	return Event{
		Type:      EventSpotsSnapshot,
		Data:      SpotsSnapshotData{Spots: spots},
		Timestamp: time.Now(),
	}
}

// NewKnotsSnapshotEvent creates a Knot feed snapshot event.
func NewKnotsSnapshotEvent(knots []*domain.Knot) Event {
	return Event{
		Type:      EventKnotsSnapshot,
		Data:      KnotsSnapshotData{Knots: knots},
		Timestamp: time.Now(),
	}
}

// NewNotificationsEvent creates a notification list event.
func NewNotificationsEvent(notifications []*domain.Notification) Event {
	return Event{
		Type:      EventNotifications,
		Data:      NotificationsData{Notifications: notifications},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatData{ServerTime: time.Now()},
		Timestamp: time.Now(),
	}
}
