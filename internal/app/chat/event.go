/*
Package chat contains the core logic of the chat engine: connection state
machines, presence tracking, bounded message history, and broadcasting.

This file defines the wire envelope and the typed payloads exchanged over a
connection.
*/
package chat

import (
	"time"

	"pulsechat/internal/pkg/randx"
)

// EventType identifies a logical event on the connection channel.
type EventType string

// Inbound event types.
const (
	TypeAuthenticate EventType = "authenticate"
	TypeJoin         EventType = "join"
	TypeChat         EventType = "chat"
)

// Outbound event types.
const (
	TypeWelcome       EventType = "welcome"
	TypeJoined        EventType = "joined"
	TypeLeft          EventType = "left"
	TypePresenceList  EventType = "presence-list"
	TypeChatBroadcast EventType = "chat-broadcast"
	TypeAuthError     EventType = "auth-error"
	TypeError         EventType = "error"
)

// Event is the envelope for every outbound message. The id and timestamp are
// server-assigned so clients observe one authoritative ordering.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent builds an outbound Event with a fresh id and the current
// unix-millisecond timestamp.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		Type:      eventType,
		ID:        randx.MessageID(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// AuthenticatePayload carries the opaque session token.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// JoinPayload announces the peer's intent to enter the room. The server
// trusts the authenticated session identity; the declared fields exist for
// protocol symmetry with reconnecting clients.
type JoinPayload struct {
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

// ChatPayload carries an inbound chat message body.
type ChatPayload struct {
	Body string `json:"body"`
}

// WelcomePayload is sent privately to a connection that just joined.
type WelcomePayload struct {
	Message string        `json:"message"`
	Users   []Entry       `json:"users"`
	History []ChatMessage `json:"history"`
}

// PresenceEventPayload describes a join or leave notice. It is transient:
// broadcast once and never stored.
type PresenceEventPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"name"`
	Message     string `json:"message"`
}

// PresenceListPayload carries the full ordered list of online users.
type PresenceListPayload struct {
	Users []Entry `json:"users"`
}

// AuthErrorPayload explains why authentication failed before the close.
type AuthErrorPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload reports a non-fatal error back to a single connection.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
