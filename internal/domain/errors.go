package domain

import "errors"

var (
	// Validation errors
	ErrInvalidAmount     = errors.New("amount must be a positive number with at most two decimal places")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to your own account")
	ErrRecipientNotFound = errors.New("recipient account not found")

	// Store errors
	ErrAccountNotFound = errors.New("account not found")
	ErrBalanceConflict = errors.New("balance changed concurrently")
	ErrStorage         = errors.New("storage error")

	// Engine errors
	ErrContention      = errors.New("operation retries exhausted due to contention")
	ErrTransferAborted = errors.New("transfer aborted and reversed")

	// Session errors
	ErrInvalidCredentials = errors.New("invalid user ID or PIN")
	ErrInvalidSession     = errors.New("invalid or expired session")
)
