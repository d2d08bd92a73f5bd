package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/atmcore/internal/domain"
)

// TransactionRepository implements usecase.TransactionLog over
// PostgreSQL. Entries are append-only; there is no update or delete
// path.
type TransactionRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool:    pool,
		retrier: NewRetrier(),
	}
}

const insertTransaction = `
	INSERT INTO transactions (id, account_id, kind, amount, counterparty_id, balance_after, seq, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Append durably records a single ledger entry.
func (r *TransactionRepository) Append(ctx context.Context, entry *domain.Transaction) error {
	args, err := insertArgs(entry)
	if err != nil {
		return err
	}

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, insertTransaction, args...)

		return err
	})
}

// AppendBatch records entries all-or-nothing inside one database
// transaction, preserving order.
func (r *TransactionRepository) AppendBatch(ctx context.Context, entries []*domain.Transaction) error {
	argSets := make([][]any, len(entries))
	for i, entry := range entries {
		args, err := insertArgs(entry)
		if err != nil {
			return err
		}

		argSets[i] = args
	}

	return r.retrier.Retry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, args := range argSets {
			if _, err := tx.Exec(ctx, insertTransaction, args...); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

// ListByAccount returns the account's entries in commit order, newest
// first. Each call is an independent query, so the listing can be
// restarted at any offset.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, counterparty_id, balance_after, seq, description, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Transaction
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func insertArgs(entry *domain.Transaction) ([]any, error) {
	var counterparty sql.NullString
	if entry.CounterpartyID != "" {
		counterparty = sql.NullString{String: entry.CounterpartyID, Valid: true}
	}

	amount, err := moneyToNumeric(entry.Amount)
	if err != nil {
		return nil, err
	}

	balanceAfter, err := moneyToNumeric(entry.BalanceAfter)
	if err != nil {
		return nil, err
	}

	return []any{
		entry.ID,
		entry.AccountID,
		string(entry.Kind),
		amount,
		counterparty,
		balanceAfter,
		entry.Sequence,
		entry.Description,
		timeToPgTimestamptz(entry.CreatedAt),
	}, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		entry        domain.Transaction
		kind         string
		amount       pgtype.Numeric
		counterparty sql.NullString
		balanceAfter pgtype.Numeric
		createdAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&kind,
		&amount,
		&counterparty,
		&balanceAfter,
		&entry.Sequence,
		&entry.Description,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.TransactionKind(kind)
	entry.Amount = numericToMoney(amount)
	entry.CounterpartyID = counterparty.String
	entry.BalanceAfter = numericToMoney(balanceAfter)
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}

// Type conversion helpers.
func moneyToNumeric(m domain.Money) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(m.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("money to numeric: %w", err)
	}

	return n, nil
}

func numericToMoney(n pgtype.Numeric) domain.Money {
	if !n.Valid {
		return domain.ZeroMoney()
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return domain.MoneyFromDecimal(d)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
