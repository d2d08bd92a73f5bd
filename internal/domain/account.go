package domain

import (
	"time"
)

// Account represents a bank account addressable by two identifiers: the
// opaque internal ID and the user-facing UserID used for login and as a
// transfer destination key.
type Account struct {
	ID         string
	UserID     string
	HolderName string
	PINHash    string
	Balance    Money
	// Version counts successful balance writes. The store bumps it
	// inside the same conditional write that moves the balance.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanWithdraw reports whether debiting amount would keep the balance
// non-negative.
func (a *Account) CanWithdraw(amount Money) bool {
	return !a.Balance.Sub(amount).IsNegative()
}

// ApplyDebit returns the balance after debiting amount.
func (a *Account) ApplyDebit(amount Money) Money {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after crediting amount.
func (a *Account) ApplyCredit(amount Money) Money {
	return a.Balance.Add(amount)
}
