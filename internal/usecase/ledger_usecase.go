package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/atmcore/internal/domain"
)

// maxApplyAttempts bounds the optimistic read-validate-write cycle per
// account mutation. Exhausting it surfaces domain.ErrContention instead
// of spinning.
const maxApplyAttempts = 5

// LedgerUseCase is the ledger engine: it validates money-movement
// operations, mutates balances through compare-and-swap writes, and
// appends matching ledger entries. It holds no state between calls.
type LedgerUseCase struct {
	accounts AccountStore
	log      TransactionLog
	idGen    IDGenerator
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accounts AccountStore, log TransactionLog, idGen IDGenerator) *LedgerUseCase {
	return &LedgerUseCase{
		accounts: accounts,
		log:      log,
		idGen:    idGen,
	}
}

// Deposit credits amount to the account and appends a deposit entry.
// It returns the new balance.
func (uc *LedgerUseCase) Deposit(ctx context.Context, accountID string, amount domain.Money) (domain.Money, error) {
	if !amount.IsPositive() {
		return domain.Money{}, domain.ErrInvalidAmount
	}

	newBalance, seq, err := uc.applyDelta(ctx, accountID, amount)
	if err != nil {
		return domain.Money{}, err
	}

	entry := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		AccountID:    accountID,
		Kind:         domain.KindDeposit,
		Amount:       amount,
		BalanceAfter: newBalance,
		Sequence:     seq,
		Description:  "Cash deposit",
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.log.Append(ctx, entry); err != nil {
		return domain.Money{}, uc.reverse(ctx, accountID, amount.Neg(), err)
	}

	return newBalance, nil
}

// Withdraw debits amount from the account and appends a withdraw entry.
// Sufficiency is re-checked against the same observed balance the
// compare-and-swap is conditioned on, so a stale check can never apply
// against a different actual balance. It returns the new balance.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, accountID string, amount domain.Money) (domain.Money, error) {
	if !amount.IsPositive() {
		return domain.Money{}, domain.ErrInvalidAmount
	}

	newBalance, seq, err := uc.applyDelta(ctx, accountID, amount.Neg())
	if err != nil {
		return domain.Money{}, err
	}

	entry := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		AccountID:    accountID,
		Kind:         domain.KindWithdraw,
		Amount:       amount,
		BalanceAfter: newBalance,
		Sequence:     seq,
		Description:  "Cash withdrawal",
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.log.Append(ctx, entry); err != nil {
		return domain.Money{}, uc.reverse(ctx, accountID, amount, err)
	}

	return newBalance, nil
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	SourceAccountID string
	RecipientUserID string
	Amount          domain.Money
}

// Transfer debits the source account and credits the account resolved by
// the recipient's user identifier, then appends the matched
// transfer_out/transfer_in pair as one batch. The two balance mutations
// are applied in lexicographic account-ID order so that concurrent
// opposite-direction transfers contend in a consistent order. If the
// second mutation cannot be completed the first is reversed and the
// operation fails with domain.ErrTransferAborted: the visible end state
// is always both sides moved or neither. It returns the source's new
// balance.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (domain.Money, error) {
	if !input.Amount.IsPositive() {
		return domain.Money{}, domain.ErrInvalidAmount
	}

	source, err := uc.accounts.GetByID(ctx, input.SourceAccountID)
	if err != nil {
		return domain.Money{}, err
	}

	recipient, err := uc.accounts.GetByUserID(ctx, input.RecipientUserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Money{}, domain.ErrRecipientNotFound
		}

		return domain.Money{}, err
	}

	if recipient.UserID == source.UserID {
		return domain.Money{}, domain.ErrSelfTransfer
	}

	// Precondition check; re-validated under compare-and-swap below.
	if !source.CanWithdraw(input.Amount) {
		return domain.Money{}, domain.ErrInsufficientFunds
	}

	type leg struct {
		accountID string
		delta     domain.Money
	}

	legs := [2]leg{
		{accountID: source.ID, delta: input.Amount.Neg()},
		{accountID: recipient.ID, delta: input.Amount},
	}
	if legs[1].accountID < legs[0].accountID {
		legs[0], legs[1] = legs[1], legs[0]
	}

	balances := make(map[string]domain.Money, 2)
	seqs := make(map[string]int64, 2)

	firstBalance, firstSeq, err := uc.applyDelta(ctx, legs[0].accountID, legs[0].delta)
	if err != nil {
		// Nothing moved yet; surface the failure directly.
		return domain.Money{}, err
	}

	balances[legs[0].accountID] = firstBalance
	seqs[legs[0].accountID] = firstSeq

	secondBalance, secondSeq, err := uc.applyDelta(ctx, legs[1].accountID, legs[1].delta)
	if err != nil {
		return domain.Money{}, uc.abortTransfer(ctx, legs[0].accountID, legs[0].delta, err)
	}

	balances[legs[1].accountID] = secondBalance
	seqs[legs[1].accountID] = secondSeq

	now := time.Now().UTC()
	pair := []*domain.Transaction{
		{
			ID:             uc.idGen.Generate(),
			AccountID:      source.ID,
			Kind:           domain.KindTransferOut,
			Amount:         input.Amount,
			CounterpartyID: recipient.UserID,
			BalanceAfter:   balances[source.ID],
			Sequence:       seqs[source.ID],
			Description:    "Transfer to " + recipient.HolderName,
			CreatedAt:      now,
		},
		{
			ID:             uc.idGen.Generate(),
			AccountID:      recipient.ID,
			Kind:           domain.KindTransferIn,
			Amount:         input.Amount,
			CounterpartyID: source.UserID,
			BalanceAfter:   balances[recipient.ID],
			Sequence:       seqs[recipient.ID],
			Description:    "Transfer from " + source.HolderName,
			CreatedAt:      now,
		},
	}

	if err := uc.log.AppendBatch(ctx, pair); err != nil {
		if rerr := uc.compensate(ctx, legs[1].accountID, legs[1].delta.Neg()); rerr != nil {
			return domain.Money{}, fmt.Errorf("%w: compensation failed: %w (after %w)", domain.ErrStorage, rerr, err)
		}

		return domain.Money{}, uc.abortTransfer(ctx, legs[0].accountID, legs[0].delta, err)
	}

	return balances[source.ID], nil
}

// History returns the account's ledger entries, newest first.
func (uc *LedgerUseCase) History(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if _, err := uc.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	return uc.log.ListByAccount(ctx, accountID, limit, offset)
}

// applyDelta performs one optimistic balance mutation: read, validate,
// compute, compare-and-swap, retrying the whole cycle on conflict. A
// mutation that would drive the balance negative fails with
// domain.ErrInsufficientFunds against the balance actually observed in
// that attempt. On success it returns the written balance and the
// commit sequence the store assigned to the write; the sequence, not
// the append time, is what orders the account's ledger entries.
func (uc *LedgerUseCase) applyDelta(ctx context.Context, accountID string, delta domain.Money) (domain.Money, int64, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		account, err := uc.accounts.GetByID(ctx, accountID)
		if err != nil {
			return domain.Money{}, 0, err
		}

		newBalance := account.Balance.Add(delta)
		if newBalance.IsNegative() {
			return domain.Money{}, 0, domain.ErrInsufficientFunds
		}

		seq, err := uc.accounts.SetBalance(ctx, accountID, newBalance, account.Balance)
		if errors.Is(err, domain.ErrBalanceConflict) {
			continue
		}

		if err != nil {
			return domain.Money{}, 0, err
		}

		return newBalance, seq, nil
	}

	return domain.Money{}, 0, domain.ErrContention
}

// abortTransfer reverses an already-applied leg and reports the transfer
// as aborted. If the compensating mutation itself fails the error
// escalates to domain.ErrStorage: the ledger needs external
// reconciliation at that point.
func (uc *LedgerUseCase) abortTransfer(ctx context.Context, appliedAccountID string, appliedDelta domain.Money, cause error) error {
	if err := uc.compensate(ctx, appliedAccountID, appliedDelta.Neg()); err != nil {
		return fmt.Errorf("%w: compensation failed: %w (after %w)", domain.ErrStorage, err, cause)
	}

	return fmt.Errorf("%w: %w", domain.ErrTransferAborted, cause)
}

// reverse undoes a committed single-account mutation whose ledger entry
// could not be appended, then reports the append failure as a storage
// error.
func (uc *LedgerUseCase) reverse(ctx context.Context, accountID string, delta domain.Money, cause error) error {
	if err := uc.compensate(ctx, accountID, delta); err != nil {
		return fmt.Errorf("%w: compensation failed: %w (after %w)", domain.ErrStorage, err, cause)
	}

	return fmt.Errorf("%w: %w", domain.ErrStorage, cause)
}

func (uc *LedgerUseCase) compensate(ctx context.Context, accountID string, delta domain.Money) error {
	_, _, err := uc.applyDelta(ctx, accountID, delta)

	return err
}
