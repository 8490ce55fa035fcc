package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/knotspotapp/knotspot-server/internal/auth"
	"github.com/knotspotapp/knotspot-server/internal/config"
	"github.com/knotspotapp/knotspot-server/internal/repair"
	"github.com/knotspotapp/knotspot-server/internal/service"
	"github.com/knotspotapp/knotspot-server/internal/sse"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(t.TempDir(), "data"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	journal, err := repair.Open(filepath.Join(t.TempDir(), "repair.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	tokens, err := auth.NewTokenService(
		"6368616e676520746869732070617373776f726420746f206120736563726574",
		15*time.Minute,
		720*time.Hour,
	)
	require.NoError(t, err)

	cfg := &config.Config{
		App:    config.AppConfig{Environment: "test"},
		Server: config.ServerConfig{Name: "Knotspot Test"},
		Auth: config.AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 720 * time.Hour,
		},
	}

	notifications := service.NewNotificationService(st, logger)
	cascade := service.NewCascadeHandler(st, journal, logger)
	spots := service.NewSpotService(st, notifications, cascade, logger)
	knots := service.NewKnotService(st, spots, cascade, logger)

	services := &Services{
		Instance:     service.NewInstanceService(st, cfg),
		Auth:         service.NewAuthService(st, tokens, logger),
		Spot:         spots,
		Knot:         knots,
		Comment:      service.NewCommentService(st, spots, notifications, logger),
		Group:        service.NewGroupService(st, notifications, logger),
		Social:       service.NewSocialService(st, logger),
		Notification: notifications,
		Feed:         service.NewFeedService(st, logger),
	}

	sseManager := sse.NewManager(logger)
	t.Cleanup(sseManager.Shutdown)

	srv := NewServer(st, services, sseManager, cfg, logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
	}
}

// registerUser registers an account and returns its bearer token and user ID.
func (ts *testServer) registerUser(t *testing.T, username, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}
