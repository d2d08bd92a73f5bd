package domain

import (
	"time"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindDeposit     TransactionKind = "deposit"
	KindWithdraw    TransactionKind = "withdraw"
	KindTransferOut TransactionKind = "transfer_out"
	KindTransferIn  TransactionKind = "transfer_in"
)

var validKinds = map[TransactionKind]bool{
	KindDeposit:     true,
	KindWithdraw:    true,
	KindTransferOut: true,
	KindTransferIn:  true,
}

// IsValid checks if the kind is one of the four ledger entry kinds.
func (k TransactionKind) IsValid() bool {
	return validKinds[k]
}

// IsDebit reports whether the kind reduces the account balance.
func (k TransactionKind) IsDebit() bool {
	return k == KindWithdraw || k == KindTransferOut
}

// Transaction is a single immutable ledger entry. Amount is always
// positive; the kind carries the direction. CounterpartyID is the other
// side's user identifier and is set only for transfer kinds.
type Transaction struct {
	ID             string
	AccountID      string
	Kind           TransactionKind
	Amount         Money
	CounterpartyID string
	BalanceAfter   Money
	// Sequence is the account version assigned by the balance write this
	// entry records. It orders the account's history by commit order,
	// which the wall clock cannot guarantee under concurrency.
	Sequence    int64
	Description string
	CreatedAt   time.Time
}

// SignedAmount returns the entry's effect on the balance: negative for
// withdrawals and outgoing transfers, positive otherwise.
func (t *Transaction) SignedAmount() Money {
	if t.Kind.IsDebit() {
		return t.Amount.Neg()
	}

	return t.Amount
}
