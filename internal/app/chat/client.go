/*
Package chat contains the core logic of the chat engine.

This file defines the Client struct, representing one live connection. It
owns the connection's state machine (Connecting -> Authenticated -> Active ->
Closed), the read and write pumps, and the buffered outbound queue.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/randx"
)

const (
	// sendQueueSize is the per-connection outbound buffer. A peer that falls
	// this far behind is disconnected rather than allowed to stall others.
	sendQueueSize = 256

	// pingPeriod is how often the write pump asks the transport to ping.
	pingPeriod = 54 * time.Second

	// MaxBodyBytes is the maximum accepted chat message body length.
	MaxBodyBytes = 5000
)

// ConnState is the lifecycle state of one connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

// String returns the state name for logging.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// errConnectionDone signals the read pump that the connection reached a
// terminal state and no further inbound events may be processed.
var errConnectionDone = fmt.Errorf("connection reached terminal state")

// Client represents one live connection and its associated user. The state
// field is owned by the read pump; the hub observes the connection only
// through the presence registry and the send queue.
type Client struct {
	// id is the connection id. Presence is keyed by it, never by user id.
	id string

	// hub is the broadcast engine this connection belongs to.
	hub *Hub

	// transport is the abstract bidirectional message channel.
	transport Transport

	// identity is set on successful authentication.
	identity user.Identity

	// state transitions only inside the read pump.
	state ConnState

	// send queues outbound frames for the write pump.
	send chan []byte

	// sendClosed marks the queue closed; checked before every enqueue.
	sendClosed atomic.Bool
	closeOnce  sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client in the Connecting state.
func NewClient(hub *Hub, transport Transport) *Client {
	connectionID := randx.ConnectionID()

	clientLogger := logx.Logger().With().
		Str("connection_id", connectionID).
		Logger()

	return &Client{
		id:        connectionID,
		hub:       hub,
		transport: transport,
		state:     StateConnecting,
		send:      make(chan []byte, sendQueueSize),
		logger:    clientLogger,
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Identity returns the authenticated identity; zero before authentication.
func (c *Client) Identity() user.Identity {
	return c.identity
}

// ReadPump consumes inbound events until the transport closes or the state
// machine reaches Closed, then hands the connection to the hub for cleanup.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	for {
		data, err := c.transport.ReadMessage()
		if err != nil {
			c.logger.Debug().Err(err).Msg("Read loop finished")
			return
		}

		if err := c.processInbound(data); err != nil {
			return
		}
	}
}

// cleanupOnDisconnect runs exactly once when the read pump exits. The hub
// tolerates repeated leave notices for the same connection.
func (c *Client) cleanupOnDisconnect() {
	c.state = StateClosed
	c.hub.Leave(c)
}

// processInbound decodes one inbound frame and dispatches it through the
// state machine. A returned error terminates the connection.
func (c *Client) processInbound(data []byte) error {
	var inbound struct {
		Type    EventType       `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(data, &inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Peer sent invalid JSON")
		return c.protocolViolation(inbound.Type)
	}

	switch inbound.Type {
	case TypeAuthenticate:
		if c.state != StateConnecting {
			return c.protocolViolation(inbound.Type)
		}
		return c.handleAuthenticate(inbound.Payload)

	case TypeJoin:
		if c.state != StateAuthenticated {
			return c.protocolViolation(inbound.Type)
		}
		return c.handleJoin(inbound.Payload)

	case TypeChat:
		if c.state != StateActive {
			return c.protocolViolation(inbound.Type)
		}
		c.handleChat(inbound.Payload)
		return nil

	default:
		return c.protocolViolation(inbound.Type)
	}
}

// handleAuthenticate exchanges the session token for an identity. Failure is
// terminal: the peer gets one auth-error event and the connection closes
// without ever reaching Active. The reason is deliberately generic so the
// peer cannot tell absent, malformed, and revoked tokens apart.
func (c *Client) handleAuthenticate(payload json.RawMessage) error {
	var auth AuthenticatePayload
	if err := json.Unmarshal(payload, &auth); err != nil {
		c.logger.Warn().Err(err).Msg("Peer sent invalid authenticate payload")
		return c.authFailure()
	}

	identity, ok := c.hub.sessions.Validate(auth.Token)
	if !ok {
		return c.authFailure()
	}

	c.identity = identity
	c.state = StateAuthenticated
	c.logger = c.logger.With().Str("user_id", identity.ID).Logger()
	c.logger.Info().Msg("Connection authenticated")

	return nil
}

func (c *Client) authFailure() error {
	c.logger.Info().Msg("Authentication failed, closing connection")

	c.enqueueEvent(NewEvent(TypeAuthError, AuthErrorPayload{
		Reason: "invalid session",
	}))

	c.state = StateClosed
	c.closeSend()

	return errConnectionDone
}

// handleJoin moves the connection to Active and registers it with the hub.
// The declared payload identity is ignored in favor of the session identity.
func (c *Client) handleJoin(payload json.RawMessage) error {
	var join JoinPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &join); err != nil {
			c.logger.Warn().Err(err).Msg("Peer sent invalid join payload")
			return c.protocolViolation(TypeJoin)
		}
	}

	if join.UserID != "" && join.UserID != c.identity.ID {
		c.logger.Warn().
			Str("declared_user_id", join.UserID).
			Msg("Join declared a different user id than the session; using session identity")
	}

	c.state = StateActive
	c.hub.Join(c)

	return nil
}

// handleChat validates and forwards a chat message. Whitespace-only bodies
// are dropped silently by policy; oversized bodies produce an error event to
// this connection only.
func (c *Client) handleChat(payload json.RawMessage) {
	var chat ChatPayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		c.logger.Warn().Err(err).Msg("Peer sent invalid chat payload")
		return
	}

	body := strings.TrimSpace(chat.Body)
	if body == "" {
		return
	}

	if len(body) > MaxBodyBytes {
		c.SendError(errs.NewError(errs.ErrMessageTooLong))
		return
	}

	c.hub.SubmitChat(c.identity, body)
}

// protocolViolation reports the violation to the peer and terminates the
// connection. Only this connection is affected.
func (c *Client) protocolViolation(eventType EventType) error {
	c.logger.Warn().
		Str("event_type", string(eventType)).
		Str("state", c.state.String()).
		Msg("Protocol violation, closing connection")

	c.SendError(errs.NewError(errs.ErrProtocolViolation))

	c.state = StateClosed
	c.closeSend()

	return errConnectionDone
}

// WritePump drains the send queue to the transport and keeps the heartbeat
// alive. It owns the transport's lifetime: when the queue closes and drains,
// it closes the transport.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.transport.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Transport close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			if err := c.transport.WriteMessage(frame); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.transport.WritePing(); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// enqueueEvent marshals the event and queues it. A full or closed queue
// drops the frame and reports false; the caller decides whether that peer
// should be disconnected.
func (c *Client) enqueueEvent(event Event) bool {
	frame, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event")
		return false
	}

	return c.enqueueFrame(frame)
}

// enqueueFrame queues a pre-marshaled frame without blocking.
func (c *Client) enqueueFrame(frame []byte) (queued bool) {
	if c.sendClosed.Load() {
		return false
	}

	// The queue can close between the check above and the send below.
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
		return false
	}
}

// SendError queues a TypeError event describing err to this connection only.
func (c *Client) SendError(err error) {
	code := errs.ErrUnknown
	message := "Internal server error"

	if customErr, ok := err.(*errs.CustomError); ok {
		code = customErr.Code
		message = customErr.Message
	}

	c.enqueueEvent(NewEvent(TypeError, ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// closeSend closes the outbound queue exactly once. The write pump finishes
// draining and then closes the transport.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.sendClosed.Store(true)
		close(c.send)
	})
}
