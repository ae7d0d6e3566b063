package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestService_Register_And_Authenticate(t *testing.T) {
	req := require.New(t)
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	// When a user registers
	identity, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	req.NoError(err)
	req.NotEmpty(identity.ID)
	req.Equal("Alice", identity.DisplayName)
	req.Equal("alice@example.com", identity.ExternalID)

	// Then the same credentials authenticate
	authed, err := svc.Authenticate(ctx, "alice@example.com", "s3cret-pass")
	req.NoError(err)
	req.Equal(identity, authed)
}

func TestService_Authenticate_Uniform_Failure(t *testing.T) {
	req := require.New(t)
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	req.NoError(err)

	// Wrong password and unknown id fail with the same error.
	_, errWrongPass := svc.Authenticate(ctx, "alice@example.com", "bad-pass")
	_, errUnknownID := svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")

	req.ErrorIs(errWrongPass, ErrNotFound)
	req.ErrorIs(errUnknownID, ErrNotFound)
}

func TestService_Register_Duplicate_ExternalID(t *testing.T) {
	req := require.New(t)
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	req.NoError(err)

	_, err = svc.Register(ctx, "Imposter", "alice@example.com", "other-pass")
	req.ErrorIs(err, ErrDuplicateExternalID)
}

func TestService_Resolve_Reflects_Stored_Record(t *testing.T) {
	req := require.New(t)
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	identity, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	req.NoError(err)

	resolved, ok := svc.Resolve(identity.ID)
	req.True(ok)
	req.Equal(identity, resolved)

	_, ok = svc.Resolve("missing-user")
	req.False(ok)
}

func TestService_Identities_Never_Expose_Hashes(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	req.NoError(err)
	_, err = svc.Register(ctx, "Bob", "bob@example.com", "hunter22")
	req.NoError(err)

	identities, err := svc.Identities(ctx)
	req.NoError(err)
	req.Len(identities, 2)

	// The stored hash must not equal the raw password either.
	acct, err := repo.GetByExternalID(ctx, "alice@example.com")
	req.NoError(err)
	req.NotEqual("s3cret-pass", acct.PasswordHash)
}
