// Package realtime implements the session channel: a websocket hub with
// named rooms keyed by authenticated identity, region and category.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Room naming conventions shared with the mobile clients.
const SellersRoom = "sellers"

// UserRoom names the private room every connection joins.
func UserRoom(userID string) string { return "user:" + userID }

// RegionRoom names a geographic room.
func RegionRoom(city, postalCode string) string { return "region:" + city + ":" + postalCode }

// CategoryRoom names a category broadcast room.
func CategoryRoom(category string) string { return "category:" + category }

// Event is the wire frame every room emit carries.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// client wraps a connection with a write lock, since emits from concurrent
// dispatch goroutines may target the same connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks room membership. Join and leave are safe under concurrency;
// a single instance is created in the composition root and injected wherever
// emits happen.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]bool)}
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]bool)
		h.rooms[room] = members
	}
	members[c] = true
}

func (h *Hub) leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// leaveAll drops the client from every room, used on disconnect.
func (h *Hub) leaveAll(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the current member count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// EmitToRoom sends an event to every connection in a room. It reports true
// when at least one member received the frame, which is what per-candidate
// delivery success means for the session channel.
func (h *Hub) EmitToRoom(room, event string, payload interface{}) bool {
	frame, err := json.Marshal(Event{Type: event, Data: payload})
	if err != nil {
		return false
	}

	h.mu.RLock()
	members := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	delivered := false
	for _, c := range members {
		if err := c.send(frame); err == nil {
			delivered = true
		}
	}
	return delivered
}
