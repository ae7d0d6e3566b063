package account

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps accounts in process memory. It backs development
// setups without a database and all unit tests.
type MemoryRepository struct {
	mu           sync.RWMutex
	byID         map[string]Account
	byExternalID map[string]string
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:         make(map[string]Account),
		byExternalID: make(map[string]string),
	}
}

// Create stores acct, rejecting a duplicate external id.
func (r *MemoryRepository) Create(ctx context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternalID[acct.ExternalID]; exists {
		return ErrDuplicateExternalID
	}

	r.byID[acct.ID] = acct
	r.byExternalID[acct.ExternalID] = acct.ID

	return nil
}

// GetByID returns the account with the given id.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}

	return acct, nil
}

// GetByExternalID returns the account registered under externalID.
func (r *MemoryRepository) GetByExternalID(ctx context.Context, externalID string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternalID[externalID]
	if !ok {
		return Account{}, ErrNotFound
	}

	return r.byID[id], nil
}

// List returns all accounts ordered by creation time.
func (r *MemoryRepository) List(ctx context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, 0, len(r.byID))
	for _, acct := range r.byID {
		accounts = append(accounts, acct)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts, nil
}
