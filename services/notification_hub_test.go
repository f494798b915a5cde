package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub stands up a websocket endpoint that registers the accepted
// connection with the hub, then dials it.
func dialHub(t *testing.T, hub *NotificationHub, userID uint) (*websocket.Conn, *WSClient) {
	t.Helper()
	up := websocket.Upgrader{}
	registered := make(chan *WSClient, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		registered <- hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case c := <-registered:
		return conn, c
	case <-time.After(time.Second):
		t.Fatal("client never registered")
		return nil, nil
	}
}

func TestHubSessionExpiredNotification(t *testing.T) {
	hub := NewNotificationHub()
	conn, _ := dialHub(t, hub, 42)

	hub.NotifySessionExpired(42)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg, &payload))
	assert.Equal(t, "session.expired", payload["kind"])
}

func TestHubBroadcastTargetsOneUser(t *testing.T) {
	hub := NewNotificationHub()
	conn, _ := dialHub(t, hub, 1)

	hub.Broadcast(2, map[string]any{"kind": "meal.logged", "for": "someone else"})
	hub.Broadcast(1, map[string]any{"kind": "meal.logged", "for": "me"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"me"`, "first delivered message must be the user's own")
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewNotificationHub()
	conn, client := dialHub(t, hub, 7)

	hub.Unregister(client)
	hub.Unregister(client) // idempotent
	hub.Broadcast(7, map[string]any{"kind": "meal.logged"})

	// The pump closed the connection, so the peer sees an error, not data.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
