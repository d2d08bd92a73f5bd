package dto

import (
	"time"

	"github.com/iho/atmcore/internal/domain"
)

// AccountResponse represents an account in API responses. The PIN hash
// never leaves the server.
type AccountResponse struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	HolderName string       `json:"holder_name"`
	Balance    domain.Money `json:"balance"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		HolderName: a.HolderName,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// LoginResponse carries the session token and the account snapshot.
type LoginResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// BalanceResponse is the result of a money-movement operation.
type BalanceResponse struct {
	Balance domain.Money `json:"balance"`
}

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID             string       `json:"id"`
	AccountID      string       `json:"account_id"`
	Kind           string       `json:"kind"`
	Amount         domain.Money `json:"amount"`
	CounterpartyID string       `json:"counterparty_id,omitempty"`
	BalanceAfter   domain.Money `json:"balance_after"`
	Sequence       int64        `json:"sequence"`
	Description    string       `json:"description"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TransactionFromDomain converts a domain entry to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		Kind:           string(t.Kind),
		Amount:         t.Amount,
		CounterpartyID: t.CounterpartyID,
		BalanceAfter:   t.BalanceAfter,
		Sequence:       t.Sequence,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain entries to responses.
func TransactionsFromDomain(entries []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(entries))
	for i, t := range entries {
		result[i] = TransactionFromDomain(t)
	}

	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
