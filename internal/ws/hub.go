// Package ws is the live channel: a hub of websocket clients keyed by
// connection address. Commands arriving on a connection go through the
// dispatcher; event frames produced by the services come back in through
// Send, which makes the hub the service layer's Sender.
package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"equion/internal/service"
)

// maxDroppedFrames is the threshold for disconnecting a slow client.
const maxDroppedFrames = 100

type Hub struct {
	service *service.State

	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}

	mu      sync.RWMutex
	clients map[string]*Client // addr -> client
}

func NewHub(svc *service.State) *Hub {
	return &Hub{
		service:    svc,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run owns the client table. Disconnect cleanup (unsubscribe, voice leave,
// presence broadcast) happens here, outside the table lock, so the resulting
// events can fan out through Send.
//
// Shutdown closes every connection and keeps the loop alive until the pumps
// have unwound through unregister; closing the send channels directly would
// race ReadPump, which may still be queueing a response.
func (h *Hub) Run() {
	shutdown := h.shutdown
	draining := false
	for {
		select {
		case <-shutdown:
			h.mu.Lock()
			for _, client := range h.clients {
				client.Close()
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			if remaining == 0 {
				slog.Info("shutdown complete", "component", "hub")
				return
			}
			draining = true
			shutdown = nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.addr] = client
			h.mu.Unlock()
			if draining {
				client.Close()
				continue
			}
			slog.Debug("client connected", "addr", client.addr)

		case client := <-h.unregister:
			h.mu.Lock()
			removed := false
			if h.clients[client.addr] == client {
				delete(h.clients, client.addr)
				client.CloseSend()
				removed = true
			}
			remaining := len(h.clients)
			h.mu.Unlock()

			if removed {
				h.service.DisconnectAddr(client.addr)
				slog.Debug("client disconnected", "addr", client.addr)
			}
			if draining && remaining == 0 {
				slog.Info("shutdown complete", "component", "hub")
				return
			}
		}
	}
}

// Send delivers a frame to the client at addr, if still connected. A full
// send buffer drops the frame rather than blocking fan-out; clients that
// keep falling behind are disconnected. The read lock is held across the
// buffered send so the channel cannot be closed out from under it.
func (h *Hub) Send(addr string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[addr]
	if !ok {
		return
	}

	select {
	case client.send <- frame:
	default:
		dropped := atomic.AddInt64(&client.dropped, 1)
		if dropped%10 == 1 {
			slog.Warn("dropped frames for slow client", "addr", addr, "dropped", dropped)
		}
		if dropped >= maxDroppedFrames {
			slog.Warn("disconnecting slow client", "addr", addr, "dropped", dropped)
			client.Close()
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
