/*
Package user contains the core data structures for user identity.

It defines the immutable identity record exchanged between the account
service, the session store, and the chat engine.
*/
package user

// Identity is the immutable public record of a chat participant. It is
// created once at registration and read-only everywhere else; in particular
// the chat core never mutates it.
type Identity struct {
	// ID is the server-assigned unique identifier for the user.
	ID string `json:"id"`

	// DisplayName is the name shown to other participants.
	DisplayName string `json:"name"`

	// ExternalID is the login identifier the user registered with.
	ExternalID string `json:"uid"`
}

// Directory resolves user ids to their current identity. The message log and
// session store consult it at read time so a display name change is visible
// immediately rather than frozen at send time.
type Directory interface {
	Resolve(userID string) (Identity, bool)
}
