package usecase

import (
	"context"
	"time"

	"github.com/iho/atmcore/internal/domain"
)

// AccountStore defines data access for accounts. SetBalance is a
// compare-and-swap: the write must be rejected with
// domain.ErrBalanceConflict when the stored balance no longer equals
// expectedPrior. On success it returns the account version assigned by
// the write, which is the only ordering of commits the store vouches
// for; entries are stamped with it so history replays in commit order.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Account, error)
	SetBalance(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error)
}

// TransactionLog defines append-only access to ledger entries.
// AppendBatch is all-or-nothing; it records transfer pairs so that either
// both sides of a transfer are logged or neither is. ListByAccount
// orders by commit sequence, newest first.
type TransactionLog interface {
	Append(ctx context.Context, entry *domain.Transaction) error
	AppendBatch(ctx context.Context, entries []*domain.Transaction) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// SessionStore maps opaque session tokens to account IDs.
type SessionStore interface {
	Create(ctx context.Context, token, accountID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
