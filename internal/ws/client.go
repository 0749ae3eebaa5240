package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tobyv/guesswho/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Maximum inbound message size; intents are tiny
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one live websocket connection. It holds the transient
// connection id and, after a successful create/join, a reference to the
// hub for the room it is subscribed to.
type Client struct {
	conn   *websocket.Conn
	connID model.ConnectionID
	send   chan []byte
	logger *slog.Logger

	mu  sync.Mutex
	hub *Hub // current room subscription, nil outside a room

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, connID model.ConnectionID, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		connID: connID,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(slog.String("conn_id", string(connID))),
	}
}

// setHub records the client's current room subscription
func (c *Client) setHub(hub *Hub) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hub = hub
}

// currentHub returns the client's current room subscription, or nil
func (c *Client) currentHub() *Hub {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hub
}

// enqueue marshals a message and queues it for this connection only.
// Sends never block; a full buffer drops the message with a warning.
func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal outbound message", slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("message dropped - client buffer full")
	}
}

// closeSend closes the outbound queue exactly once, ending the write pump
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads intents off the connection and hands them to the gateway.
// It runs on the connection's serving goroutine and owns teardown.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.handleDisconnect(c)
		c.closeSend()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		g.handleMessage(c, msg)
	}
}

// writePump drains the send queue onto the connection and keeps it alive
// with periodic pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
