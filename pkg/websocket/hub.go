package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pawtraits/pkg/logger"
)

// AdminRoom receives every live feed event.
const AdminRoom = "admins"

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	logger     *logger.Logger
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     log,
	}
}

// Run serves hub events until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Broadcast queues message for delivery. It never blocks; when the queue is full the
// message is dropped and logged.
func (h *Hub) Broadcast(message Message) {
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.WithField("event", message.Type).Warn("Live feed queue full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, "user_"+client.UserID)
	if client.Role == "admin" {
		h.joinRoom(client, AdminRoom)
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": client.UserID,
		"role":    client.Role,
	}).Info("Live feed client connected")

	h.sendToClient(client, Message{
		Type:      "welcome",
		Timestamp: getCurrentTimestamp(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
		},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		h.removeClient(client)
		h.logger.WithField("user_id", client.UserID).Info("Live feed client disconnected")
	}
}

func (h *Hub) deliver(message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if message.RoomID == "" {
		for client := range h.clients {
			h.sendToClient(client, message)
		}
		return
	}

	for client := range h.rooms[message.RoomID] {
		h.sendToClient(client, message)
	}
}

// sendToClient must be called with the write lock held. Clients whose buffer is full
// are disconnected.
func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode live feed message")
		return
	}

	select {
	case client.send <- data:
	default:
		h.removeClient(client)
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		h.removeClient(client)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
