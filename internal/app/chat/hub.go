/*
Package chat contains the core logic of the chat engine.

This file defines the Hub, the broadcast engine for the single global room.
Its Run loop is the one serialization point for joins, leaves, and chat
messages: each logical event is fanned out to every active connection in the
same relative order it was generated.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/randx"
)

const (
	// inboundBuffer sizes the chat submission channel.
	inboundBuffer = 1024

	// leaveBuffer sizes the leave channel; leaves must not be dropped under
	// bursts of disconnects.
	leaveBuffer = 256

	// WelcomeHistoryLimit is how many recent messages a joining connection
	// receives in its welcome event.
	WelcomeHistoryLimit = 50
)

// SessionValidator exchanges an opaque token for a verified identity.
type SessionValidator interface {
	Validate(token string) (user.Identity, bool)
}

// inboundChat is one accepted chat submission awaiting serialization.
type inboundChat struct {
	sender user.Identity
	body   string
}

// Hub is the broadcast engine. It owns the presence registry and message
// log; connections interact with it only through Join, Leave, and
// SubmitChat.
type Hub struct {
	sessions SessionValidator
	presence *PresenceRegistry
	history  *MessageLog

	// clients maps connection ids to their Client for fan-out.
	clients map[string]*Client

	// closed remembers connection ids that completed their lifecycle;
	// re-registering one is a protocol error, not silently ignored.
	closed map[string]struct{}

	join    chan *Client
	leave   chan *Client
	inbound chan inboundChat

	stop chan struct{}
	wg   sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its Run loop.
func NewHub(sessions SessionValidator, presence *PresenceRegistry, history *MessageLog) *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	h := &Hub{
		sessions: sessions,
		presence: presence,
		history:  history,
		clients:  make(map[string]*Client),
		closed:   make(map[string]struct{}),
		join:     make(chan *Client),
		leave:    make(chan *Client, leaveBuffer),
		inbound:  make(chan inboundChat, inboundBuffer),
		stop:     make(chan struct{}),
		logger:   hubLogger,
	}

	h.wg.Add(1)
	go h.run()

	return h
}

// Presence exposes the registry for read-only collaborators (the REST
// online-users endpoint).
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// History exposes the message log for read-only collaborators (the REST
// recent-history endpoint).
func (h *Hub) History() *MessageLog {
	return h.history
}

// Join queues the connection for registration.
func (h *Hub) Join(c *Client) {
	select {
	case h.join <- c:
	case <-h.stop:
		c.closeSend()
	}
}

// Leave queues the connection for removal. Safe to call more than once and
// for connections that never joined.
func (h *Hub) Leave(c *Client) {
	select {
	case h.leave <- c:
	case <-h.stop:
		c.closeSend()
	}
}

// SubmitChat queues an accepted chat message for append and fan-out. A full
// queue drops the message with a warning rather than blocking the sender's
// read pump.
func (h *Hub) SubmitChat(sender user.Identity, body string) {
	select {
	case h.inbound <- inboundChat{sender: sender, body: body}:
	default:
		h.logger.Warn().Str("sender_id", sender.ID).Msg("Inbound chat queue full, dropping message")
	}
}

// Shutdown stops the Run loop and closes every connection's send queue.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	close(h.stop)
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

// run is the hub's event loop and single serialization point. Registry and
// log mutations plus all fan-out happen here, so every recipient observes
// one logical event order. No transport write happens on this goroutine;
// delivery goes through each connection's buffered queue.
func (h *Hub) run() {
	defer h.wg.Done()

	h.logger.Info().Msg("Hub loop started.")

	for {
		select {
		case c := <-h.join:
			h.handleJoin(c)

		case c := <-h.leave:
			h.handleLeave(c)

		case m := <-h.inbound:
			h.handleChat(m)

		case <-h.stop:
			for _, c := range h.clients {
				c.closeSend()
			}
			h.clients = make(map[string]*Client)
			h.logger.Info().Msg("Hub loop stopped.")
			return
		}
	}
}

// handleJoin registers presence, welcomes the joiner privately, announces
// the join to others, and refreshes everyone's presence list.
func (h *Hub) handleJoin(c *Client) {
	if _, wasClosed := h.closed[c.id]; wasClosed {
		h.logger.Warn().
			Str("connection_id", c.id).
			Msg("Rejecting join for a closed connection identity")

		c.SendError(fmt.Errorf("connection identity already closed"))
		c.closeSend()
		return
	}

	identity := c.Identity()

	// Snapshot before registering so the welcome lists the others only.
	others := h.presence.Snapshot()

	h.presence.Register(c.id, identity.ID, identity.DisplayName)
	h.clients[c.id] = c

	h.logger.Info().
		Str("connection_id", c.id).
		Str("user_id", identity.ID).
		Int("total_connections", len(h.clients)).
		Msg("Connection joined")

	welcome := NewEvent(TypeWelcome, WelcomePayload{
		Message: fmt.Sprintf("Welcome to the chat, %s", identity.DisplayName),
		Users:   others,
		History: h.history.Recent(WelcomeHistoryLimit),
	})
	if !c.enqueueEvent(welcome) {
		h.removeClient(c)
		return
	}

	joined := NewEvent(TypeJoined, PresenceEventPayload{
		UserID:      identity.ID,
		DisplayName: identity.DisplayName,
		Message:     fmt.Sprintf("%s has joined the chat", identity.DisplayName),
	})
	h.fanOut(joined, c.id)

	h.fanOut(NewEvent(TypePresenceList, PresenceListPayload{
		Users: h.presence.Snapshot(),
	}), "")
}

// handleLeave removes presence and, when this was the user's last
// connection, announces the leave. The refreshed presence list always
// follows so notice and list converge even under reordering.
func (h *Hub) handleLeave(c *Client) {
	entry, ok := h.presence.Unregister(c.id)

	delete(h.clients, c.id)
	c.closeSend()

	if !ok {
		// Never joined, or already removed; both are expected during
		// disconnect races.
		return
	}

	h.closed[c.id] = struct{}{}

	h.logger.Info().
		Str("connection_id", c.id).
		Str("user_id", entry.UserID).
		Int("total_connections", len(h.clients)).
		Msg("Connection left")

	if !h.presence.IsOnline(entry.UserID) {
		left := NewEvent(TypeLeft, PresenceEventPayload{
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			Message:     fmt.Sprintf("%s has left the chat", entry.DisplayName),
		})
		h.fanOut(left, "")
	}

	h.fanOut(NewEvent(TypePresenceList, PresenceListPayload{
		Users: h.presence.Snapshot(),
	}), "")
}

// handleChat appends the message to the log, then fans it out to every
// active connection including the sender, so the sender's UI reflects the
// server-assigned ordering.
func (h *Hub) handleChat(m inboundChat) {
	msg := ChatMessage{
		ID:         randx.MessageID(),
		SenderID:   m.sender.ID,
		SenderName: m.sender.DisplayName,
		Body:       m.body,
		Timestamp:  time.Now().UnixMilli(),
	}

	h.history.Append(msg)

	h.fanOut(NewEvent(TypeChatBroadcast, msg), "")
}

// fanOut delivers one logical event to every active connection except
// excludeConnID (empty means everyone). The event is marshaled once and
// queued per connection; a connection whose queue is full is removed, never
// allowed to block the loop or other peers.
func (h *Hub) fanOut(event Event, excludeConnID string) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Error marshaling event for fan-out")
		return
	}

	var stalled []*Client

	for _, entry := range h.presence.Snapshot() {
		if entry.ConnectionID == excludeConnID {
			continue
		}

		c, ok := h.clients[entry.ConnectionID]
		if !ok {
			continue
		}

		if !c.enqueueFrame(frame) {
			stalled = append(stalled, c)
		}
	}

	for _, c := range stalled {
		h.logger.Warn().
			Str("connection_id", c.id).
			Msg("Peer not keeping up, removing connection")
		h.removeClient(c)
	}
}

// removeClient runs the leave handling inline from within the loop.
func (h *Hub) removeClient(c *Client) {
	h.handleLeave(c)
}
