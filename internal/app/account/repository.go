/*
Package account implements the credential storage collaborator.

It owns user records and password verification. The chat core never touches
this package directly; it only consumes the verified identities the account
service hands to the session store.
*/
package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateExternalID is returned when the external id is already registered.
	ErrDuplicateExternalID = errors.New("account: external id already registered")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account: not found")
)

// Account is the stored user record, including the credential hash. Only the
// identity projection ever leaves this package.
type Account struct {
	ID           string
	ExternalID   string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository abstracts account persistence. Two implementations exist: an
// in-memory map for development and tests, and a Postgres-backed one.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	GetByID(ctx context.Context, id string) (Account, error)
	GetByExternalID(ctx context.Context, externalID string) (Account, error)
	List(ctx context.Context) ([]Account, error)
}
