// Package ws implements the live-connection core: the room registry,
// the broadcast engine, and the per-connection session.
package ws

import (
	"encoding/json"
	"strings"

	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store"
	"github.com/rs/zerolog"
)

type joinRequest struct {
	client *Client
	room   string
	reply  chan error
}

type publishRequest struct {
	client      *Client
	room        string
	content     string
	displayName string
	reply       chan publishResult
}

type publishResult struct {
	msg *models.Message
	err error
}

// Hub owns the Registry and the message log handle. All subscription
// mutations, appends, and fan-out snapshots are serialized through its
// Run loop, so a fan-out always observes a registry state consistent
// with every join and leave that happened before the append.
type Hub struct {
	registry *Registry
	store    store.Store
	logger   zerolog.Logger

	// Registered clients, joined or not.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	publish    chan publishRequest
}

func NewHub(s store.Store, logger zerolog.Logger) *Hub {
	return &Hub{
		registry:   NewRegistry(),
		store:      s,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		publish:    make(chan publishRequest),
	}
}

// Run is the hub's event loop. It should be started once, in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.registry.Leave(client)
				delete(h.clients, client)
				client.closeSend()
				h.logger.Debug().Str("conn", client.id).Msg("connection closed")
			}
		case req := <-h.join:
			if _, ok := h.clients[req.client]; !ok {
				// The read pump can race one final event past its own
				// unregistration; a closed session must never re-enter
				// the registry, or nothing would ever remove it again.
				req.reply <- ErrClosed
				continue
			}
			h.registry.Join(req.client, req.room)
			h.logger.Debug().Str("conn", req.client.id).Str("room", req.room).Msg("joined room")
			req.reply <- nil
		case req := <-h.publish:
			req.reply <- h.handlePublish(req)
		}
	}
}

// handlePublish appends the message and, only after the append is
// durable, fans it out to the room's current subscriber snapshot. An
// append failure reaches the publisher alone; nothing is delivered.
func (h *Hub) handlePublish(req publishRequest) publishResult {
	room := strings.TrimSpace(req.room)
	content := strings.TrimSpace(req.content)
	if room == "" || content == "" {
		return publishResult{err: ErrValidation}
	}

	current, ok := h.registry.Room(req.client)
	if !ok || current != room {
		return publishResult{err: ErrNotSubscribed}
	}

	msg, err := h.store.AppendMessage(room, req.client.identity.ID, req.displayName, content)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("message append failed")
		return publishResult{err: ErrPersistence}
	}

	payload, err := json.Marshal(deliverEvent{Type: eventMessage, Message: *msg})
	if err != nil {
		// The message is durable; only this fan-out is lost.
		h.logger.Error().Err(err).Int64("msg", msg.ID).Msg("marshal deliver event")
		return publishResult{msg: msg}
	}

	for _, subscriber := range h.registry.Subscribers(room) {
		if !subscriber.trySend(payload) {
			// Slow consumer: drop the connection rather than block or
			// reorder deliveries for the rest of the room.
			h.registry.Leave(subscriber)
			delete(h.clients, subscriber)
			subscriber.closeSend()
			h.logger.Warn().Str("conn", subscriber.id).Msg("send buffer full, dropping connection")
		}
	}

	return publishResult{msg: msg}
}

// Register adds a connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection, leaving its room if it had one.
// Idempotent.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join subscribes client to room, leaving any prior room, and returns
// once the registry mutation is visible to subsequent publishes. A
// client that is no longer registered gets ErrClosed.
func (h *Hub) Join(client *Client, room string) error {
	reply := make(chan error, 1)
	h.join <- joinRequest{client: client, room: room, reply: reply}
	return <-reply
}

// Publish persists the message and delivers it to the room's current
// subscribers. The caller is suspended until the append is acknowledged;
// other connections are unaffected.
func (h *Hub) Publish(client *Client, room, content, displayName string) (*models.Message, error) {
	reply := make(chan publishResult, 1)
	h.publish <- publishRequest{
		client:      client,
		room:        room,
		content:     content,
		displayName: displayName,
		reply:       reply,
	}
	res := <-reply
	return res.msg, res.err
}
