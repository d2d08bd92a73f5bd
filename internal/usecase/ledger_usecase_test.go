package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/atmcore/internal/domain"
	"github.com/iho/atmcore/internal/usecase/mocks"
)

func seedAccount(store *mocks.MockAccountStore, id, userID, holder string, cents int64) *domain.Account {
	account := &domain.Account{
		ID:         id,
		UserID:     userID,
		HolderName: holder,
		Balance:    domain.MoneyFromCents(cents),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	store.Put(account)

	return account
}

func newTestLedger() (*LedgerUseCase, *mocks.MockAccountStore, *mocks.MockTransactionLog) {
	store := mocks.NewMockAccountStore()
	log := mocks.NewMockTransactionLog()
	uc := NewLedgerUseCase(store, log, mocks.NewMockIDGenerator())

	return uc, store, log
}

func TestDeposit(t *testing.T) {
	tests := []struct {
		name        string
		startCents  int64
		amountCents int64
		expectedErr error
		wantBalance string
		wantEntries int
	}{
		{
			name:        "credits the account",
			startCents:  10000,
			amountCents: 2550,
			wantBalance: "125.50",
			wantEntries: 1,
		},
		{
			name:        "zero amount rejected",
			startCents:  10000,
			amountCents: 0,
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name:        "negative amount rejected",
			startCents:  10000,
			amountCents: -100,
			expectedErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store, log := newTestLedger()
			seedAccount(store, "acc-1", "alice01", "Alice", tt.startCents)

			balance, err := uc.Deposit(context.Background(), "acc-1", domain.MoneyFromCents(tt.amountCents))

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				if len(log.All()) != 0 {
					t.Error("expected no ledger entry on failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if balance.String() != tt.wantBalance {
				t.Errorf("expected balance %s, got %s", tt.wantBalance, balance)
			}

			entries := log.All()
			if len(entries) != tt.wantEntries {
				t.Fatalf("expected %d entries, got %d", tt.wantEntries, len(entries))
			}

			entry := entries[0]
			if entry.Kind != domain.KindDeposit {
				t.Errorf("expected kind deposit, got %s", entry.Kind)
			}
			if !entry.BalanceAfter.Equal(balance) {
				t.Errorf("expected balance_after %s, got %s", balance, entry.BalanceAfter)
			}
			if entry.Sequence != 1 {
				t.Errorf("expected commit sequence 1, got %d", entry.Sequence)
			}
			if entry.Description != "Cash deposit" {
				t.Errorf("unexpected description %q", entry.Description)
			}
		})
	}
}

func TestDepositUnknownAccount(t *testing.T) {
	uc, _, _ := newTestLedger()

	_, err := uc.Deposit(context.Background(), "nope", domain.MoneyFromCents(100))
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDepositReversedWhenAppendFails(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-1", "alice01", "Alice", 10000)

	appendErr := errors.New("log unavailable")
	log.AppendFunc = func(ctx context.Context, entry *domain.Transaction) error {
		return appendErr
	}

	_, err := uc.Deposit(context.Background(), "acc-1", domain.MoneyFromCents(2500))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, appendErr) {
		t.Fatalf("expected wrapped append error, got %v", err)
	}

	account, getErr := store.GetByID(context.Background(), "acc-1")
	if getErr != nil {
		t.Fatalf("unexpected error: %v", getErr)
	}
	if account.Balance.String() != "100.00" {
		t.Errorf("expected balance restored to 100.00, got %s", account.Balance)
	}
}

func TestWithdraw(t *testing.T) {
	tests := []struct {
		name        string
		startCents  int64
		amountCents int64
		expectedErr error
		wantBalance string
	}{
		{
			name:        "debits the account",
			startCents:  10000,
			amountCents: 4000,
			wantBalance: "60.00",
		},
		{
			name:        "drains to zero",
			startCents:  10000,
			amountCents: 10000,
			wantBalance: "0.00",
		},
		{
			name:        "insufficient funds",
			startCents:  10000,
			amountCents: 15000,
			expectedErr: domain.ErrInsufficientFunds,
		},
		{
			name:        "zero amount rejected",
			startCents:  10000,
			amountCents: 0,
			expectedErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store, log := newTestLedger()
			seedAccount(store, "acc-1", "alice01", "Alice", tt.startCents)

			balance, err := uc.Withdraw(context.Background(), "acc-1", domain.MoneyFromCents(tt.amountCents))

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				if len(log.All()) != 0 {
					t.Error("expected no ledger entry on failure")
				}

				account, getErr := store.GetByID(context.Background(), "acc-1")
				if getErr != nil {
					t.Fatalf("unexpected error: %v", getErr)
				}
				if !account.Balance.Equal(domain.MoneyFromCents(tt.startCents)) {
					t.Errorf("expected balance unchanged, got %s", account.Balance)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if balance.String() != tt.wantBalance {
				t.Errorf("expected balance %s, got %s", tt.wantBalance, balance)
			}

			entries := log.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].Kind != domain.KindWithdraw {
				t.Errorf("expected kind withdraw, got %s", entries[0].Kind)
			}
			if entries[0].Description != "Cash withdrawal" {
				t.Errorf("unexpected description %q", entries[0].Description)
			}
		})
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-1", "alice01", "Alice", 10000)

	if _, err := uc.Deposit(context.Background(), "acc-1", domain.MoneyFromCents(3333)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := uc.Withdraw(context.Background(), "acc-1", domain.MoneyFromCents(3333))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.String() != "100.00" {
		t.Errorf("expected 100.00 after round trip, got %s", balance)
	}
	if len(log.All()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(log.All()))
	}
}

func TestApplyDeltaRetriesOnConflict(t *testing.T) {
	uc, store, _ := newTestLedger()
	seedAccount(store, "acc-1", "alice01", "Alice", 10000)

	conflicts := 0
	store.SetBalanceFunc = func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
		if conflicts < 2 {
			conflicts++
			return 0, domain.ErrBalanceConflict
		}
		return 1, nil
	}

	balance, err := uc.Deposit(context.Background(), "acc-1", domain.MoneyFromCents(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflicts != 2 {
		t.Errorf("expected 2 conflicts before success, got %d", conflicts)
	}
	if balance.String() != "105.00" {
		t.Errorf("expected 105.00, got %s", balance)
	}
}

func TestApplyDeltaExhaustsRetries(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-1", "alice01", "Alice", 10000)

	attempts := 0
	store.SetBalanceFunc = func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
		attempts++
		return 0, domain.ErrBalanceConflict
	}

	_, err := uc.Deposit(context.Background(), "acc-1", domain.MoneyFromCents(500))
	if !errors.Is(err, domain.ErrContention) {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	if attempts != maxApplyAttempts {
		t.Errorf("expected %d attempts, got %d", maxApplyAttempts, attempts)
	}
	if len(log.All()) != 0 {
		t.Error("expected no ledger entry after exhausted retries")
	}
}

func TestTransfer(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-a", "alice01", "Alice", 10000)
	seedAccount(store, "acc-b", "bob02", "Bob", 5000)

	balance, err := uc.Transfer(context.Background(), TransferInput{
		SourceAccountID: "acc-a",
		RecipientUserID: "bob02",
		Amount:          domain.MoneyFromCents(3000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.String() != "70.00" {
		t.Errorf("expected source balance 70.00, got %s", balance)
	}

	recipient, err := store.GetByID(context.Background(), "acc-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recipient.Balance.String() != "80.00" {
		t.Errorf("expected recipient balance 80.00, got %s", recipient.Balance)
	}

	entries := log.All()
	if len(entries) != 2 {
		t.Fatalf("expected a matched pair, got %d entries", len(entries))
	}

	out, in := entries[0], entries[1]
	if out.Kind != domain.KindTransferOut || in.Kind != domain.KindTransferIn {
		t.Fatalf("unexpected entry kinds %s/%s", out.Kind, in.Kind)
	}
	if out.AccountID != "acc-a" || in.AccountID != "acc-b" {
		t.Error("entries attached to wrong accounts")
	}
	if out.CounterpartyID != "bob02" || in.CounterpartyID != "alice01" {
		t.Error("counterparties do not reference the other side's user id")
	}
	if !out.Amount.Equal(in.Amount) {
		t.Error("expected matched amounts")
	}
	if out.BalanceAfter.String() != "70.00" || in.BalanceAfter.String() != "80.00" {
		t.Error("unexpected balance_after on transfer pair")
	}
	if out.Sequence != 1 || in.Sequence != 1 {
		t.Error("expected each side stamped with its own account's commit sequence")
	}
	if out.Description != "Transfer to Bob" {
		t.Errorf("unexpected description %q", out.Description)
	}
	if in.Description != "Transfer from Alice" {
		t.Errorf("unexpected description %q", in.Description)
	}
}

func TestTransferValidation(t *testing.T) {
	tests := []struct {
		name        string
		input       TransferInput
		expectedErr error
	}{
		{
			name: "zero amount",
			input: TransferInput{
				SourceAccountID: "acc-a",
				RecipientUserID: "bob02",
				Amount:          domain.ZeroMoney(),
			},
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name: "unknown recipient",
			input: TransferInput{
				SourceAccountID: "acc-a",
				RecipientUserID: "ghost",
				Amount:          domain.MoneyFromCents(100),
			},
			expectedErr: domain.ErrRecipientNotFound,
		},
		{
			name: "self transfer",
			input: TransferInput{
				SourceAccountID: "acc-a",
				RecipientUserID: "alice01",
				Amount:          domain.MoneyFromCents(100),
			},
			expectedErr: domain.ErrSelfTransfer,
		},
		{
			name: "insufficient funds",
			input: TransferInput{
				SourceAccountID: "acc-a",
				RecipientUserID: "bob02",
				Amount:          domain.MoneyFromCents(99999),
			},
			expectedErr: domain.ErrInsufficientFunds,
		},
		{
			name: "unknown source",
			input: TransferInput{
				SourceAccountID: "nope",
				RecipientUserID: "bob02",
				Amount:          domain.MoneyFromCents(100),
			},
			expectedErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store, log := newTestLedger()
			seedAccount(store, "acc-a", "alice01", "Alice", 10000)
			seedAccount(store, "acc-b", "bob02", "Bob", 5000)

			_, err := uc.Transfer(context.Background(), tt.input)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
			if len(log.All()) != 0 {
				t.Error("expected no ledger entries on failed transfer")
			}

			for _, id := range []string{"acc-a", "acc-b"} {
				account, getErr := store.GetByID(context.Background(), id)
				if getErr != nil {
					t.Fatalf("unexpected error: %v", getErr)
				}

				want := "100.00"
				if id == "acc-b" {
					want = "50.00"
				}
				if account.Balance.String() != want {
					t.Errorf("expected %s balance %s, got %s", id, want, account.Balance)
				}
			}
		})
	}
}

func TestTransferMutatesInLexicographicOrder(t *testing.T) {
	uc, store, _ := newTestLedger()
	// Source sorts after recipient, so the credit leg must go first.
	seedAccount(store, "b-acc", "alice01", "Alice", 10000)
	seedAccount(store, "a-acc", "bob02", "Bob", 5000)

	var order []string
	store.SetBalanceFunc = func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
		order = append(order, id)

		f := store.SetBalanceFunc
		store.SetBalanceFunc = nil
		seq, err := store.SetBalance(ctx, id, newBalance, expectedPrior)
		store.SetBalanceFunc = f

		return seq, err
	}

	_, err := uc.Transfer(context.Background(), TransferInput{
		SourceAccountID: "b-acc",
		RecipientUserID: "bob02",
		Amount:          domain.MoneyFromCents(1000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "a-acc" || order[1] != "b-acc" {
		t.Fatalf("expected mutations ordered [a-acc b-acc], got %v", order)
	}
}

func TestTransferAbortedWhenSecondLegFails(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-a", "alice01", "Alice", 10000)
	seedAccount(store, "acc-b", "bob02", "Bob", 5000)

	store.SetBalanceFunc = func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
		if id == "acc-b" {
			return 0, domain.ErrBalanceConflict
		}

		f := store.SetBalanceFunc
		store.SetBalanceFunc = nil
		seq, err := store.SetBalance(ctx, id, newBalance, expectedPrior)
		store.SetBalanceFunc = f

		return seq, err
	}

	_, err := uc.Transfer(context.Background(), TransferInput{
		SourceAccountID: "acc-a",
		RecipientUserID: "bob02",
		Amount:          domain.MoneyFromCents(3000),
	})
	if !errors.Is(err, domain.ErrTransferAborted) {
		t.Fatalf("expected ErrTransferAborted, got %v", err)
	}
	if !errors.Is(err, domain.ErrContention) {
		t.Fatalf("expected wrapped contention cause, got %v", err)
	}

	source, getErr := store.GetByID(context.Background(), "acc-a")
	if getErr != nil {
		t.Fatalf("unexpected error: %v", getErr)
	}
	if source.Balance.String() != "100.00" {
		t.Errorf("expected source restored to 100.00, got %s", source.Balance)
	}
	if len(log.All()) != 0 {
		t.Error("expected no ledger entries for aborted transfer")
	}
}

func TestTransferAbortedWhenBatchAppendFails(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-a", "alice01", "Alice", 10000)
	seedAccount(store, "acc-b", "bob02", "Bob", 5000)

	batchErr := errors.New("log unavailable")
	log.AppendBatchFunc = func(ctx context.Context, entries []*domain.Transaction) error {
		return batchErr
	}

	_, err := uc.Transfer(context.Background(), TransferInput{
		SourceAccountID: "acc-a",
		RecipientUserID: "bob02",
		Amount:          domain.MoneyFromCents(3000),
	})
	if !errors.Is(err, domain.ErrTransferAborted) {
		t.Fatalf("expected ErrTransferAborted, got %v", err)
	}
	if !errors.Is(err, batchErr) {
		t.Fatalf("expected wrapped append error, got %v", err)
	}

	for id, want := range map[string]string{"acc-a": "100.00", "acc-b": "50.00"} {
		account, getErr := store.GetByID(context.Background(), id)
		if getErr != nil {
			t.Fatalf("unexpected error: %v", getErr)
		}
		if account.Balance.String() != want {
			t.Errorf("expected %s restored to %s, got %s", id, want, account.Balance)
		}
	}
}

func TestTransferCompensationFailureEscalates(t *testing.T) {
	uc, store, _ := newTestLedger()
	seedAccount(store, "acc-a", "alice01", "Alice", 10000)
	seedAccount(store, "acc-b", "bob02", "Bob", 5000)

	// First mutation lands, everything after it conflicts: the second
	// leg fails and so does the compensating write.
	calls := 0
	store.SetBalanceFunc = func(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
		calls++
		if calls > 1 {
			return 0, domain.ErrBalanceConflict
		}

		f := store.SetBalanceFunc
		store.SetBalanceFunc = nil
		seq, err := store.SetBalance(ctx, id, newBalance, expectedPrior)
		store.SetBalanceFunc = f

		return seq, err
	}

	_, err := uc.Transfer(context.Background(), TransferInput{
		SourceAccountID: "acc-a",
		RecipientUserID: "bob02",
		Amount:          domain.MoneyFromCents(3000),
	})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	uc, store, log := newTestLedger()
	seedAccount(store, "acc-1", "alice01", "Alice", 10000)

	var gotLimit, gotOffset int
	log.ListByAccountFunc = func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 20, wantOffset: 0},
		{name: "explicit", limit: 50, offset: 10, wantLimit: 50, wantOffset: 10},
		{name: "capped", limit: 500, offset: 0, wantLimit: 100, wantOffset: 0},
		{name: "negative offset clamped", limit: 10, offset: -5, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.History(context.Background(), "acc-1", tt.limit, tt.offset); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("expected limit/offset %d/%d, got %d/%d", tt.wantLimit, tt.wantOffset, gotLimit, gotOffset)
			}
		})
	}
}

func TestHistoryUnknownAccount(t *testing.T) {
	uc, _, _ := newTestLedger()

	_, err := uc.History(context.Background(), "nope", 10, 0)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
