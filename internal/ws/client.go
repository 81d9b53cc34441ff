package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/citylink/citylink/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is the server-side session for one live connection. Its
// lifecycle is Connected (no room) -> Joined (member of exactly one
// room) -> Closed. The authenticated identity is fixed before the
// connection is admitted and never changes; the subscription state
// itself lives in the hub's registry and every transition runs through
// the hub loop.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	identity models.Identity
	logger   zerolog.Logger

	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, identity models.Identity, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		hub:      hub,
		conn:     conn,
		identity: identity,
		logger:   logger.With().Str("conn", id).Int("user", identity.ID).Logger(),
		send:     make(chan []byte, sendBufferSize),
	}
}

// trySend queues an outbound frame without blocking. Returns false when
// the buffer is full, which the hub treats as a dead consumer.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend marks the session Closed and closes the send channel. Only
// the hub loop calls this, so it pairs exactly once with registration.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendError(category string) {
	payload, err := json.Marshal(errorEvent{Type: eventError, Error: category})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// readPump consumes inbound events until the connection drops, then
// unregisters unconditionally. Unregistering twice is a no-op, so a
// server-side eviction followed by the read error here stays safe.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		c.handleEvent(raw)
	}
}

// handleEvent validates one tagged inbound event and drives the session
// state machine. Rejections are reported as explicit error events; they
// never tear down the connection or leave partial state behind.
func (c *Client) handleEvent(raw []byte) {
	var event inboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.sendError(errorCategory(ErrValidation))
		return
	}

	switch event.Type {
	case eventJoin:
		room := strings.TrimSpace(event.Room)
		if room == "" {
			c.sendError(errorCategory(ErrValidation))
			return
		}
		if err := c.hub.Join(c, room); err != nil {
			c.sendError(errorCategory(err))
		}

	case eventMessage:
		if event.AuthorID != c.identity.ID {
			c.sendError(errorCategory(ErrIdentityMismatch))
			return
		}
		displayName := strings.TrimSpace(event.DisplayName)
		if displayName == "" {
			displayName = c.identity.Username
		}
		if _, err := c.hub.Publish(c, event.Room, event.Content, displayName); err != nil {
			c.sendError(errorCategory(err))
		}

	default:
		c.sendError(errorCategory(ErrValidation))
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
