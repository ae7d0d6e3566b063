/*
Package chat contains the core logic of the chat engine.

This file defines the Transport abstraction the engine runs on and its
gorilla/websocket implementation. The engine never touches framing directly,
which keeps the state machine testable against an in-process transport.
*/
package chat

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for a pong before giving up on
	// the peer. Must exceed pingPeriod.
	pongWait = 60 * time.Second

	// maxFrameSize bounds inbound frames in bytes.
	maxFrameSize = 8192
)

// Transport is one connection's bidirectional message channel. ReadMessage
// blocks until the next inbound frame; WriteMessage and WritePing are called
// only from the connection's write pump.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	WritePing() error
	Close() error
}

// wsTransport adapts a gorilla/websocket connection to Transport, owning the
// read limits, deadlines, and pong handling.
type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an upgraded WebSocket connection.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) WritePing() error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) Close() error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	t.conn.WriteMessage(websocket.CloseMessage, []byte{})
	return t.conn.Close()
}
