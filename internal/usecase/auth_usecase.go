package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/atmcore/internal/domain"
)

// AuthUseCase resolves user-id/PIN credentials into a session token.
// The ledger engine itself never sees credentials; it trusts the account
// ID the session resolves to.
type AuthUseCase struct {
	accounts   AccountStore
	sessions   SessionStore
	idGen      IDGenerator
	sessionTTL time.Duration
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(accounts AccountStore, sessions SessionStore, idGen IDGenerator, sessionTTL time.Duration) *AuthUseCase {
	return &AuthUseCase{
		accounts:   accounts,
		sessions:   sessions,
		idGen:      idGen,
		sessionTTL: sessionTTL,
	}
}

// LoginInput represents login credentials.
type LoginInput struct {
	UserID string
	PIN    string
}

// Login verifies the PIN for the user identifier and mints a session
// token. Unknown users and wrong PINs fail identically.
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*domain.Account, string, error) {
	account, err := uc.accounts.GetByUserID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}

		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(input.PIN)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token := uc.idGen.Generate()
	if err := uc.sessions.Create(ctx, token, account.ID, uc.sessionTTL); err != nil {
		return nil, "", err
	}

	account.PINHash = ""

	return account, token, nil
}

// Resolve maps a session token to the authenticated account ID.
func (uc *AuthUseCase) Resolve(ctx context.Context, token string) (string, error) {
	return uc.sessions.Get(ctx, token)
}

// Logout invalidates a session token.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	return uc.sessions.Delete(ctx, token)
}

// HashPIN hashes a PIN for storage. Used by provisioning and seeding,
// never by the engine.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
