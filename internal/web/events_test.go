package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condanest/condanest/internal/watcher"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestHub_Broadcast delivers events to a connected client.
func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	// The connection registers asynchronously on the server side.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(EventEnvsChanged, map[string]string{"env": "ml"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg eventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventEnvsChanged, msg.Type)

	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ml", payload["env"])
}

// TestHub_BroadcastNoClients must not block or panic.
func TestHub_BroadcastNoClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Broadcast(EventProgress, nil)
}

// TestHub_RelayWatcher forwards watcher events as envs_changed messages.
func TestHub_RelayWatcher(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	events := make(chan watcher.Event, 1)
	go hub.RelayWatcher(events)
	events <- watcher.Event{Dir: "/opt/conda/envs"}
	close(events)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg eventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventEnvsChanged, msg.Type)

	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/opt/conda/envs", payload["dir"])
}

// TestHub_ClientDisconnect drops the client from the registry.
func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
