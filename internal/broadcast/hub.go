package broadcast

import (
	"context"
	"fmt"
	"sync"

	"clinicq/pkg/logger"

	"github.com/google/uuid"
)

// DefaultClientBuffer is the number of frames a slow client may lag behind
const DefaultClientBuffer = 64

// Client is a single live-update subscriber
type Client struct {
	ID   string
	Send chan Frame
}

// Hub tracks connected clients. All operations are safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	bufferSize int
	log        *logger.Logger
}

// NewHub creates a hub whose clients buffer up to bufferSize frames
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultClientBuffer
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		bufferSize: bufferSize,
		log:        logger.GetDefault(),
	}
}

// Subscribe creates and registers a new client
func (h *Hub) Subscribe() *Client {
	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan Frame, h.bufferSize),
	}
	h.Register(client)
	return client
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Broadcast queues event on every client without blocking and returns how many
// clients were skipped because their buffer was full.
func (h *Hub) Broadcast(event Event) int {
	frame, err := encode(event)
	if err != nil {
		h.log.LogBroadcastDropped(context.Background(), event.Name, "all", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for client := range h.clients {
		select {
		case client.Send <- frame:
		default:
			dropped++
			h.log.LogBroadcastDropped(context.Background(), event.Name, client.ID, fmt.Errorf("client buffer full"))
		}
	}
	return dropped
}

// Publish implements Publisher for single-instance deployments
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
