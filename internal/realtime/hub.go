package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const defaultSendBuffer = 64

// Frame is the JSON shape of every server-to-client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EncodeFrame marshals an event once so it can be fanned out as bytes.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return data, nil
}

// Client is one authenticated connection. It may be joined to several rooms.
type Client struct {
	ID     string
	UserID uint64

	send   chan []byte
	rooms  map[string]struct{}
	closed bool
}

// Send exposes the outbound queue for the connection's write loop.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub tracks which clients are joined to which rooms and fans events out to them.
type Hub struct {
	mu         sync.Mutex
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: defaultSendBuffer,
		logger:     logger.With("component", "realtime"),
	}
}

// Register adds a connection for userID with no room memberships.
func (h *Hub) Register(userID uint64) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, h.sendBuffer),
		rooms:  make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("client registered", "client_id", c.ID, "user_id", userID)
	return c
}

// Unregister removes the client from every room and closes its queue.
// Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	for room := range c.rooms {
		h.removeLocked(c, room)
	}
	delete(h.clients, c)
	c.closed = true
	close(c.send)

	h.logger.Debug("client unregistered", "client_id", c.ID, "user_id", c.UserID)
}

// Join subscribes the client to room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}

	h.logger.Debug("client joined room", "client_id", c.ID, "room", room)
}

// Leave unsubscribes the client from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c, room)
}

// EvictUser removes every connection of userID from room.
func (h *Hub) EvictUser(room string, userID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for c := range h.rooms[room] {
		if c.UserID == userID {
			h.removeLocked(c, room)
			evicted++
		}
	}
	if evicted > 0 {
		h.logger.Debug("user evicted from room", "user_id", userID, "room", room, "connections", evicted)
	}
}

func (h *Hub) removeLocked(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Emit delivers event to every client joined to room at the time of the call.
func (h *Hub) Emit(room, event string, payload any) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "room", room, "event", event, "error", err)
		return
	}
	h.Deliver(room, frame)
}

// Deliver fans an encoded frame out to room. Holding the lock for the whole
// fan-out keeps delivery order per room equal to call order.
func (h *Hub) Deliver(room string, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("send queue full, dropping event", "client_id", c.ID, "user_id", c.UserID, "room", room)
		}
	}
}

// RoomSize returns the number of clients joined to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// Rooms lists the rooms the client is joined to.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Close unregisters every client, ending their write loops.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}
