package dto

import (
	"github.com/iho/atmcore/internal/domain"
	"github.com/iho/atmcore/internal/usecase"
)

// LoginRequest represents login credentials.
type LoginRequest struct {
	UserID string `json:"user_id"`
	PIN    string `json:"pin"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.LoginInput {
	return usecase.LoginInput{
		UserID: r.UserID,
		PIN:    r.PIN,
	}
}

// AmountRequest carries the amount for deposits and withdrawals. Money
// unmarshalling already rejects malformed and sub-cent values.
type AmountRequest struct {
	Amount domain.Money `json:"amount"`
}

// TransferRequest represents a request to transfer to another user.
type TransferRequest struct {
	RecipientUserID string       `json:"recipient_user_id"`
	Amount          domain.Money `json:"amount"`
}

// ToUseCaseInput converts to use case input for the given source account.
func (r *TransferRequest) ToUseCaseInput(sourceAccountID string) usecase.TransferInput {
	return usecase.TransferInput{
		SourceAccountID: sourceAccountID,
		RecipientUserID: r.RecipientUserID,
		Amount:          r.Amount,
	}
}
