/*
Package randx provides cryptographically secure random identifiers.

It generates opaque session tokens and the UUID-based ids used for messages,
connections, and user records.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// SessionTokenBytes is the number of random bytes in a session token.
// The token is hex encoded, so the resulting string is twice this length.
const SessionTokenBytes = 32

// SessionToken generates an opaque session token from crypto/rand. The token
// carries no information about its holder; it is meaningful only as a lookup
// key in the session store.
func SessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// MessageID generates a UUID v4 string identifying a chat message.
func MessageID() string {
	return uuid.New().String()
}

// ConnectionID generates a UUID v4 string identifying a live connection.
func ConnectionID() string {
	return uuid.New().String()
}

// UserID generates a UUID v4 string identifying a user record.
func UserID() string {
	return uuid.New().String()
}
