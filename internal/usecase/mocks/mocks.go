// Package mocks provides hand-rolled fakes for the usecase interfaces.
// Each method delegates to an optional Func override, falling back to a
// simple in-memory default.
package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iho/atmcore/internal/domain"
)

// MockAccountStore is a mock implementation of usecase.AccountStore.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byUserID map[string]string

	GetByIDFunc     func(ctx context.Context, id string) (*domain.Account, error)
	GetByUserIDFunc func(ctx context.Context, userID string) (*domain.Account, error)
	SetBalanceFunc  func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error)
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
		byUserID: make(map[string]string),
	}
}

// Put seeds an account into the default in-memory state.
func (m *MockAccountStore) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *account
	m.accounts[account.ID] = &cp
	m.byUserID[account.UserID] = account.ID
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}

	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}

	m.mu.RLock()
	id, ok := m.byUserID[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return m.GetByID(ctx, id)
}

func (m *MockAccountStore) SetBalance(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
	if m.SetBalanceFunc != nil {
		return m.SetBalanceFunc(ctx, id, newBalance, expectedPrior)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	if !acc.Balance.Equal(expectedPrior) {
		return 0, domain.ErrBalanceConflict
	}

	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = time.Now().UTC()

	return acc.Version, nil
}

// MockTransactionLog is a mock implementation of usecase.TransactionLog.
type MockTransactionLog struct {
	mu      sync.RWMutex
	entries []*domain.Transaction

	AppendFunc        func(ctx context.Context, entry *domain.Transaction) error
	AppendBatchFunc   func(ctx context.Context, entries []*domain.Transaction) error
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockTransactionLog() *MockTransactionLog {
	return &MockTransactionLog{}
}

func (m *MockTransactionLog) Append(ctx context.Context, entry *domain.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)

	return nil
}

func (m *MockTransactionLog) AppendBatch(ctx context.Context, entries []*domain.Transaction) error {
	if m.AppendBatchFunc != nil {
		return m.AppendBatchFunc(ctx, entries)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entries...)

	return nil
}

func (m *MockTransactionLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Transaction
	for _, entry := range m.entries {
		if entry.AccountID == accountID {
			result = append(result, entry)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Sequence == result[j].Sequence {
			return result[i].ID > result[j].ID
		}

		return result[i].Sequence > result[j].Sequence
	})

	if offset >= len(result) {
		return nil, nil
	}

	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// All returns every appended entry in append order.
func (m *MockTransactionLog) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*domain.Transaction(nil), m.entries...)
}

// MockSessionStore is a mock implementation of usecase.SessionStore.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string

	CreateFunc func(ctx context.Context, token, accountID string, ttl time.Duration) error
	GetFunc    func(ctx context.Context, token string) (string, error)
	DeleteFunc func(ctx context.Context, token string) error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]string)}
}

func (m *MockSessionStore) Create(ctx context.Context, token, accountID string, ttl time.Duration) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token, accountID, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[token] = accountID

	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, token string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, token)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	accountID, ok := m.sessions[token]
	if !ok {
		return "", domain.ErrInvalidSession
	}

	return accountID, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)

	return nil
}

// MockIDGenerator is a mock implementation of usecase.IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++

	return "id-" + strconv.Itoa(m.counter)
}
