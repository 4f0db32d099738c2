package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"pawtraits/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID, role string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 8),
		UserID: userID,
		Role:   role,
		rooms:  make(map[string]bool),
	}
}

func readMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHubDeliversAdminEventsToAdminsOnly(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	admin := newTestClient(hub, "a1", "admin")
	partner := newTestClient(hub, "p1", "partner")
	hub.register <- admin
	hub.register <- partner

	assert.Equal(t, "welcome", readMessage(t, admin).Type)
	assert.Equal(t, "welcome", readMessage(t, partner).Type)

	hub.Broadcast(AdminEvent("commission_created", map[string]interface{}{"amount": 500}))

	msg := readMessage(t, admin)
	assert.Equal(t, "commission_created", msg.Type)
	assert.Equal(t, AdminRoom, msg.RoomID)
	assert.EqualValues(t, 500, msg.Data["amount"])

	select {
	case <-partner.send:
		t.Fatal("partner must not receive admin events")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, "a1", "admin")
	hub.register <- client
	readMessage(t, client)

	cancel()
	<-done

	_, ok := <-client.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://admin.pawtraits.pics"})

	req := &http.Request{Header: http.Header{}}
	req.Header.Set("Origin", "https://admin.pawtraits.pics")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
