/*
Package chat contains the core logic of the chat engine.

This file defines the presence registry, the source of truth for which users
are currently connected. Presence is keyed by connection id, never by user id
alone: a user with several devices stays online until the last one leaves.
*/
package chat

import (
	"sync"
	"time"
)

// Entry is one live connection's presence record.
type Entry struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"name"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// PresenceRegistry maps live connections to their users. Entries keep
// insertion order so the displayed list does not reshuffle on unrelated
// events. All methods are safe for concurrent use.
type PresenceRegistry struct {
	mu sync.RWMutex

	// entries holds the live records, keyed by connection id.
	entries map[string]Entry

	// order lists connection ids in registration order.
	order []string

	// userConns counts live connections per user id.
	userConns map[string]int
}

// NewPresenceRegistry constructs an empty PresenceRegistry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries:   make(map[string]Entry),
		order:     make([]string, 0),
		userConns: make(map[string]int),
	}
}

// Register adds an entry for the connection. Registering an id that is
// already present replaces the entry in place and keeps its original
// position; it never duplicates.
func (p *PresenceRegistry) Register(connectionID, userID, displayName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.entries[connectionID]; ok {
		p.userConns[existing.UserID]--
		if p.userConns[existing.UserID] <= 0 {
			delete(p.userConns, existing.UserID)
		}
	} else {
		p.order = append(p.order, connectionID)
	}

	p.entries[connectionID] = Entry{
		ConnectionID: connectionID,
		UserID:       userID,
		DisplayName:  displayName,
		ConnectedAt:  time.Now(),
	}
	p.userConns[userID]++
}

// Unregister removes the connection's entry, returning it and true when it
// was present. Repeat calls for the same id are no-ops returning false, so
// disconnect handling may run more than once.
func (p *PresenceRegistry) Unregister(connectionID string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[connectionID]
	if !ok {
		return Entry{}, false
	}

	delete(p.entries, connectionID)

	for i, id := range p.order {
		if id == connectionID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}

	p.userConns[entry.UserID]--
	if p.userConns[entry.UserID] <= 0 {
		delete(p.userConns, entry.UserID)
	}

	return entry, true
}

// Snapshot returns a consistent point-in-time view of all entries in
// registration order.
func (p *PresenceRegistry) Snapshot() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make([]Entry, 0, len(p.order))
	for _, id := range p.order {
		snapshot = append(snapshot, p.entries[id])
	}

	return snapshot
}

// IsOnline reports whether at least one live connection maps to userID.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.userConns[userID] > 0
}

// Len returns the number of live connections.
func (p *PresenceRegistry) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.entries)
}
