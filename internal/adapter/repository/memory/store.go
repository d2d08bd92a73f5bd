// Package memory provides an in-process implementation of the account
// store and transaction log with the same compare-and-swap contract as
// the postgres adapter. It backs the demo/seed storage mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/atmcore/internal/domain"
)

// Store implements usecase.AccountStore and usecase.TransactionLog.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byUserID map[string]string
	entries  []*domain.Transaction
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byUserID: make(map[string]string),
	}
}

// PutAccount inserts or replaces an account. Provisioning only; the
// ledger engine never creates accounts.
func (s *Store) PutAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[cp.ID] = &cp
	s.byUserID[cp.UserID] = cp.ID
}

// GetByID retrieves an account by internal ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// GetByUserID retrieves an account by its user-facing identifier.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUserID[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *s.accounts[id]

	return &cp, nil
}

// SetBalance conditionally updates the balance. The write is rejected
// with domain.ErrBalanceConflict when the stored balance no longer
// equals expectedPrior. The bumped account version is returned under
// the same lock, so it reflects true commit order.
func (s *Store) SetBalance(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	if !account.Balance.Equal(expectedPrior) {
		return 0, domain.ErrBalanceConflict
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = time.Now().UTC()

	return account.Version, nil
}

// Append records a single ledger entry.
func (s *Store) Append(ctx context.Context, entry *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries = append(s.entries, &cp)

	return nil
}

// AppendBatch records entries all-or-nothing, preserving order.
func (s *Store) AppendBatch(ctx context.Context, entries []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		cp := *entry
		s.entries = append(s.entries, &cp)
	}

	return nil
}

// ListByAccount returns the account's entries in commit order, newest
// first. The listing is restartable: each call re-evaluates from the
// full log.
func (s *Store) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Transaction
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			matched = append(matched, entry)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Sequence == matched[j].Sequence {
			return matched[i].ID > matched[j].ID
		}

		return matched[i].Sequence > matched[j].Sequence
	})

	if offset >= len(matched) {
		return nil, nil
	}

	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]*domain.Transaction, len(matched))
	for i, entry := range matched {
		cp := *entry
		result[i] = &cp
	}

	return result, nil
}
