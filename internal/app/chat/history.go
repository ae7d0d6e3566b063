/*
Package chat contains the core logic of the chat engine.

This file defines the bounded message log: an append-only ring of recent
chat messages kept for late joiners. When the ring is full the oldest entry
is evicted before the newest is appended; eviction is normal policy, not an
error.
*/
package chat

import (
	"sync"

	"pulsechat/internal/app/user"
)

// ChatMessage is one stored chat message. Immutable once appended; ordering
// is the server's append order.
type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"timestamp"`
}

// MessageLog is a fixed-capacity FIFO ring of chat messages. Appends are
// O(1); reads return a consistent copy taken under the lock, never a
// partially written entry.
type MessageLog struct {
	mu sync.RWMutex

	buf  []ChatMessage
	head int
	size int

	// directory resolves sender display names at read time, so history
	// reflects the sender's current name rather than one frozen at send time.
	directory user.Directory
}

// NewMessageLog constructs a MessageLog holding at most capacity messages.
// Capacities below 1 are raised to 1.
func NewMessageLog(capacity int, directory user.Directory) *MessageLog {
	if capacity < 1 {
		capacity = 1
	}

	return &MessageLog{
		buf:       make([]ChatMessage, capacity),
		directory: directory,
	}
}

// Append adds msg at the tail, evicting the oldest entry when at capacity.
func (l *MessageLog) Append(msg ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tail := (l.head + l.size) % len(l.buf)
	l.buf[tail] = msg

	if l.size < len(l.buf) {
		l.size++
	} else {
		// Ring full: the slot just written was the old head.
		l.head = (l.head + 1) % len(l.buf)
	}
}

// Recent returns up to limit of the most recent messages in chronological
// order (oldest of the window first). The window always includes the newest
// message. Sender names are resolved through the directory when possible.
func (l *MessageLog) Recent(limit int) []ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	count := l.size
	if limit < count {
		count = limit
	}

	window := make([]ChatMessage, 0, count)
	start := l.size - count

	for i := start; i < l.size; i++ {
		msg := l.buf[(l.head+i)%len(l.buf)]

		if l.directory != nil {
			if identity, ok := l.directory.Resolve(msg.SenderID); ok {
				msg.SenderName = identity.DisplayName
			}
		}

		window = append(window, msg)
	}

	return window
}

// Len returns the number of stored messages.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.size
}

// Capacity returns the fixed ring capacity.
func (l *MessageLog) Capacity() int {
	return len(l.buf)
}
