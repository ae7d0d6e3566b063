/*
Package session implements the opaque session token store.

A session maps a crypto-random token to a user id. Tokens are issued by the
account handlers at registration and login, validated on every connection
attempt, and revoked on logout. Validation is a pure lookup: absent,
malformed, and revoked tokens are indistinguishable to the caller.
*/
package session

import (
	"sync"
	"time"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/randx"
)

// Session records one issued token. Sessions are never mutated after issue.
type Session struct {
	Token    string
	UserID   string
	IssuedAt time.Time
}

// Store holds issued sessions behind its own lock and resolves user
// identities through the directory at validation time.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session

	directory user.Directory
}

// NewStore constructs a Store resolving identities through directory.
func NewStore(directory user.Directory) *Store {
	return &Store{
		sessions:  make(map[string]Session),
		directory: directory,
	}
}

// Issue creates a new opaque token for userID and records the session.
func (s *Store) Issue(userID string) (string, error) {
	token, err := randx.SessionToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[token] = Session{
		Token:    token,
		UserID:   userID,
		IssuedAt: time.Now(),
	}
	s.mu.Unlock()

	return token, nil
}

// Validate exchanges a token for the identity it belongs to. The second
// return value is false for any token the store cannot vouch for, with no
// distinction between unknown, malformed, and revoked tokens.
func (s *Store) Validate(token string) (user.Identity, bool) {
	if token == "" {
		return user.Identity{}, false
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return user.Identity{}, false
	}

	identity, ok := s.directory.Resolve(sess.UserID)
	if !ok {
		return user.Identity{}, false
	}

	return identity, true
}

// Revoke deletes the session for token. Revoking an unknown token is a no-op.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
