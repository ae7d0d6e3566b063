package account

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/randx"
)

// Service wraps a Repository with credential hashing and identity
// projection. It also implements user.Directory for the rest of the system.
type Service struct {
	repo Repository
}

// NewService constructs a Service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account with a bcrypt-hashed password and returns
// its identity. A duplicate external id yields ErrDuplicateExternalID.
func (s *Service) Register(ctx context.Context, displayName, externalID, password string) (user.Identity, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.Identity{}, err
	}

	acct := Account{
		ID:           randx.UserID(),
		ExternalID:   externalID,
		DisplayName:  displayName,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return user.Identity{}, err
	}

	return identityOf(acct), nil
}

// Authenticate verifies the password for externalID and returns the matching
// identity. Unknown id and wrong password both return ErrNotFound so callers
// cannot tell the failure modes apart.
func (s *Service) Authenticate(ctx context.Context, externalID, password string) (user.Identity, error) {
	acct, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return user.Identity{}, ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return user.Identity{}, ErrNotFound
	}

	return identityOf(acct), nil
}

// Resolve implements user.Directory. It reads the current record so display
// name changes are reflected on the next lookup.
func (s *Service) Resolve(userID string) (user.Identity, bool) {
	acct, err := s.repo.GetByID(context.Background(), userID)
	if err != nil {
		return user.Identity{}, false
	}

	return identityOf(acct), true
}

// Identities returns the identity projection of every stored account.
func (s *Service) Identities(ctx context.Context) ([]user.Identity, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	identities := make([]user.Identity, 0, len(accounts))
	for _, acct := range accounts {
		identities = append(identities, identityOf(acct))
	}

	return identities, nil
}

func identityOf(acct Account) user.Identity {
	return user.Identity{
		ID:          acct.ID,
		DisplayName: acct.DisplayName,
		ExternalID:  acct.ExternalID,
	}
}
