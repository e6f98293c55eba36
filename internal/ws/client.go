package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"equion/internal/dispatch"
	"equion/internal/service"
)

const (
	// writeWait is the deadline for a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a peer may stay silent before the connection is
	// considered dead; pings go out at pingPeriod.
	pongWait   = 10 * time.Second
	pingPeriod = 5 * time.Second

	maxFrameSize   = 1 << 20
	sendBufferSize = 256
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	addr string

	send      chan []byte
	closeOnce sync.Once
	dropped   int64
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		addr: conn.RemoteAddr().String(),
		send: make(chan []byte, sendBufferSize),
	}
}

// Register adds the client to the hub. Call before starting the pumps.
func (c *Client) Register() {
	c.hub.register <- c
}

// Close tears the connection down; the pumps unwind from the read error.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// CloseSend is called by the hub once the client is out of the table.
func (c *Client) CloseSend() {
	close(c.send)
}

// ReadPump consumes command frames until the connection dies, then hands the
// connection to the hub for cleanup.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("unexpected close", "addr", c.addr, "error", err)
			}
			return
		}

		response := handleFrame(c.hub.service, c.addr, raw)
		select {
		case c.send <- response:
		default:
			slog.Warn("dropped command response", "addr", c.addr)
		}
	}
}

// WritePump serializes all writes on the connection: queued frames and the
// heartbeat pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame decodes one command envelope, dispatches it and renders the
// response frame. requestId, when present, is echoed back untouched so
// clients can match responses to requests.
func handleFrame(svc *service.State, addr string, raw []byte) []byte {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return invalidJSON(nil)
	}

	command, ok := body["command"].(string)
	if !ok {
		return invalidJSON(body["requestId"])
	}

	response := dispatch.Dispatch(svc, command, body, addr)
	if requestID, ok := body["requestId"]; ok {
		response["requestId"] = requestID
	}
	// Failed commands are mostly client-side validation noise; keep them out
	// of the default log level.
	if success, ok := response["success"].(bool); ok && !success {
		slog.Debug("command failed", "addr", addr, "command", command, "error", response["error"])
	}

	frame, err := json.Marshal(response)
	if err != nil {
		slog.Error("response marshal failed", "addr", addr, "error", err)
		return invalidJSON(nil)
	}
	return frame
}

func invalidJSON(requestID any) []byte {
	response := map[string]any{"success": false, "error": "Invalid JSON"}
	if requestID != nil {
		response["requestId"] = requestID
	}
	frame, _ := json.Marshal(response)
	return frame
}
