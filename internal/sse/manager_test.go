package sse

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerConnectDisconnect(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))

	client, err := m.Connect("user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())
	assert.Equal(t, "user-1", client.UserID)

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	select {
	case <-client.Done:
	default:
		t.Fatal("expected Done to be closed after disconnect")
	}

	// Double disconnect is a no-op.
	m.Disconnect(client.ID)
}

func TestClientSendDropsWhenFull(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))

	client, err := m.Connect("user-1")
	require.NoError(t, err)
	defer m.Disconnect(client.ID)

	for i := 0; i < cap(client.EventChan); i++ {
		require.True(t, client.Send(NewHeartbeatEvent()))
	}
	assert.False(t, client.Send(NewHeartbeatEvent()))
}

func TestManagerShutdownRefusesNewClients(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))

	client, err := m.Connect("user-1")
	require.NoError(t, err)

	m.Shutdown()
	assert.Equal(t, 0, m.ClientCount())

	select {
	case <-client.Done:
	default:
		t.Fatal("expected open clients to be closed on shutdown")
	}

	_, err = m.Connect("user-2")
	assert.ErrorIs(t, err, ErrShuttingDown)
}
