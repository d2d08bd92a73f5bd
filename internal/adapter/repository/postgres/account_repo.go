package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/atmcore/internal/domain"
)

// AccountRepository implements usecase.AccountStore over PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, user_id, holder_name, pin_hash, balance, version, created_at, updated_at`

// GetByID retrieves an account by internal ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByUserID retrieves an account by its user-facing identifier.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, userID))
}

// SetBalance conditionally updates the balance: the row is written only
// if the stored balance still equals expectedPrior, otherwise the update
// matches zero rows and the caller gets domain.ErrBalanceConflict. The
// version bump happens in the same statement as the balance write, so
// the returned sequence orders commits exactly as the database applied
// them.
func (r *AccountRepository) SetBalance(ctx context.Context, id string, newBalance, expectedPrior domain.Money) (int64, error) {
	newNumeric, err := moneyToNumeric(newBalance)
	if err != nil {
		return 0, err
	}

	priorNumeric, err := moneyToNumeric(expectedPrior)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE accounts
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE id = $1 AND balance = $4
		RETURNING version
	`

	var version int64
	err = r.pool.QueryRow(ctx, query,
		id,
		newNumeric,
		timeToPgTimestamptz(time.Now().UTC()),
		priorNumeric,
	).Scan(&version)
	if err == nil {
		return version, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Zero rows: distinguish a lost race from an unknown account.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, err
	}

	if !exists {
		return 0, domain.ErrAccountNotFound
	}

	return 0, domain.ErrBalanceConflict
}

// CreateAccount inserts a provisioned account. Seeding only.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	balance, err := moneyToNumeric(account.Balance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (id, user_id, holder_name, pin_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		account.ID,
		account.UserID,
		account.HolderName,
		account.PINHash,
		balance,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.HolderName,
		&account.PINHash,
		&balance,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Balance = numericToMoney(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
