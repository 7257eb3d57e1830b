// Package websocket pushes periodic resource snapshots to WebSocket clients.
// Every connection subscribes to one feed, gets its own heartbeat and push
// timers, and has inbound data frames echoed back.
package websocket

import (
	"sync"
	"sync/atomic"
	"time"
)

type frame struct {
	messageType int
	data        []byte
}

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	Feed string

	send     chan frame
	conn     Conn
	lastSeen atomic.Int64
}

func newClient(id, feed string, conn Conn, now time.Time) *Client {
	c := &Client{
		ID:   id,
		Feed: feed,
		send: make(chan frame, 16),
		conn: conn,
	}
	c.touch(now)
	return c
}

func (c *Client) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

// LastSeen is the time of the latest ping, pong or data frame from the peer.
func (c *Client) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// enqueue hands an echo frame to the write loop, dropping it if the buffer
// is full.
func (c *Client) enqueue(f frame) bool {
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// Hub tracks open connections per feed. All operations are thread-safe.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // feed -> set of clients
	all     map[*Client]struct{}
}

// NewHub creates a new Hub ready to manage WebSocket clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	if h.clients[client.Feed] == nil {
		h.clients[client.Feed] = make(map[*Client]struct{})
	}
	h.clients[client.Feed][client] = struct{}{}
}

// Unregister removes a client. It reports whether the client was registered.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return false
	}
	if subscribers, ok := h.clients[client.Feed]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, client.Feed)
		}
	}
	delete(h.all, client)
	return true
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// FeedCount returns the number of clients attached to a feed.
func (h *Hub) FeedCount(feed string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[feed])
}

// CloseAll closes every connection. Their sessions notice the read error
// and unregister themselves.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.all))
	for c := range h.all {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
