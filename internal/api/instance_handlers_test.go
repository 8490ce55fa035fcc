package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInstancePublic(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[InstanceResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Equal(t, "Knotspot Test", envelope.Data.Name)
	assert.Equal(t, "test", envelope.Data.Environment)
	assert.Equal(t, 0, envelope.Data.UserCount)
}

func TestGetInstanceCountsUsers(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "ana", "ana@example.com")
	ts.registerUser(t, "bo", "bo@example.com")

	resp := ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[InstanceResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, envelope.Data.UserCount)
}

func TestHealthCheckReportsComponents(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Contains(t, envelope.Data.Components, "database")
	assert.Contains(t, envelope.Data.Components, "sse")
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
}
