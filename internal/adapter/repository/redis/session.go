package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/atmcore/internal/domain"
)

// SessionStore implements usecase.SessionStore using Redis. Tokens
// expire server-side via TTL.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// Create stores a token -> account ID mapping with a TTL.
func (s *SessionStore) Create(ctx context.Context, token, accountID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, accountID, ttl).Err()
}

// Get resolves a token to its account ID.
func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	accountID, err := s.client.Get(ctx, s.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidSession
		}

		return "", err
	}

	return accountID, nil
}

// Delete invalidates a token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}
