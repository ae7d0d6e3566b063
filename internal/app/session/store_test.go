package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pulsechat/internal/app/user"
)

// 32 random bytes hex encoded.
const issuedTokenLen = 64

type stubDirectory struct {
	users map[string]user.Identity
}

func (d stubDirectory) Resolve(userID string) (user.Identity, bool) {
	identity, ok := d.users[userID]
	return identity, ok
}

func newStubDirectory() stubDirectory {
	return stubDirectory{users: map[string]user.Identity{
		"u1": {ID: "u1", DisplayName: "Alice", ExternalID: "alice@example.com"},
	}}
}

func TestStore_Issue_And_Validate(t *testing.T) {
	req := require.New(t)
	store := NewStore(newStubDirectory())

	// When a token is issued for a known user
	token, err := store.Issue("u1")
	req.NoError(err)
	req.Len(token, issuedTokenLen)

	// Then the token resolves to that user's identity
	identity, ok := store.Validate(token)
	req.True(ok)
	req.Equal("u1", identity.ID)
	req.Equal("Alice", identity.DisplayName)
}

func TestStore_Validate_Uniform_Invalid(t *testing.T) {
	req := require.New(t)
	store := NewStore(newStubDirectory())

	token, err := store.Issue("u1")
	req.NoError(err)
	store.Revoke(token)

	// Absent, malformed, and revoked tokens all return the same invalid result.
	for _, bad := range []string{"", "not-a-token", token} {
		identity, ok := store.Validate(bad)
		req.False(ok)
		req.Zero(identity)
	}
}

func TestStore_Validate_Unknown_User(t *testing.T) {
	req := require.New(t)
	store := NewStore(newStubDirectory())

	// A session whose user record no longer resolves is invalid too.
	token, err := store.Issue("deleted-user")
	req.NoError(err)

	_, ok := store.Validate(token)
	req.False(ok)
}

func TestStore_Revoke_Unknown_Is_NoOp(t *testing.T) {
	req := require.New(t)
	store := NewStore(newStubDirectory())

	token, err := store.Issue("u1")
	req.NoError(err)

	store.Revoke("never-issued")

	req.Equal(1, store.Count())
	_, ok := store.Validate(token)
	req.True(ok)
}

func TestStore_Tokens_Are_Unique(t *testing.T) {
	req := require.New(t)
	store := NewStore(newStubDirectory())

	seen := make(map[string]struct{})
	for n := 0; n < 100; n++ {
		token, err := store.Issue("u1")
		req.NoError(err)
		_, dup := seen[token]
		req.False(dup)
		seen[token] = struct{}{}
	}
}
