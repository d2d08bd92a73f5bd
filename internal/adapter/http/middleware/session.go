package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/atmcore/internal/usecase"
)

type contextKey string

// accountIDKey is the context key for the authenticated account ID.
const accountIDKey contextKey = "account_id"

// SessionAuth resolves bearer session tokens to account IDs. Handlers
// downstream read the result with ContextAccountID.
type SessionAuth struct {
	auth *usecase.AuthUseCase
}

// NewSessionAuth creates a new SessionAuth middleware.
func NewSessionAuth(auth *usecase.AuthUseCase) *SessionAuth {
	return &SessionAuth{auth: auth}
}

// Wrap wraps an http.Handler with session authentication.
func (m *SessionAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		accountID, err := m.auth.Resolve(r.Context(), token)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextAccountID returns the authenticated account ID, if any.
func ContextAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)

	return accountID, ok && accountID != ""
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"invalid or expired session"}`))
}
