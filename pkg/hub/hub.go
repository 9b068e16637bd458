// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"context"
	"log/slog"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/teslashibe/facelight/internal/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages, in the order they are delivered
	broadcast chan envelope

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for ClientCount
	mu sync.RWMutex
}

// envelope is a queued message. A nil to means every client.
type envelope struct {
	to   *Client
	data []byte
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		logger:     log.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// closing every client's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.dropLocked(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("🔌 client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				h.dropLocked(client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("🔌 client disconnected", "clients", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			if msg.to != nil {
				if h.clients[msg.to] {
					h.deliverLocked(msg.to, msg.data)
				}
			} else {
				for client := range h.clients {
					h.deliverLocked(client, msg.data)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) deliverLocked(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// Client's buffer is full, they're too slow
		h.dropLocked(client)
		h.logger.Warn("dropped slow client")
	}
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	close(client.send)
}

// Broadcast queues a message for every connected client. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg []byte) {
	h.enqueue(envelope{data: msg})
}

// Send queues a message for one registered client, in line with
// broadcasts queued before and after it.
func (h *Hub) Send(client *Client, msg []byte) {
	h.enqueue(envelope{to: client, data: msg})
}

func (h *Hub) enqueue(msg envelope) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
