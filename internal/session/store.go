// Package session owns the mapping from opaque tokens to authenticated
// identities. No other component writes session state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/apperr"
)

// Session binds an opaque token to a user identity with an expiry.
type Session struct {
	Token     string
	UserID    uint
	ExpiresAt time.Time
}

// Store persists sessions keyed by their opaque token.
type Store interface {
	Create(ctx context.Context, userID uint) (Session, error)
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisStore builds a Redis-backed session store. Expiry is enforced
// twice: via the key TTL and via the stored expires_at timestamp.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_store").Logger(),
		now:    time.Now,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (s *redisStore) Create(ctx context.Context, userID uint) (Session, error) {
	token := uuid.NewString()
	expiresAt := s.now().Add(s.ttl)

	fields := map[string]interface{}{
		"user_id":    userID,
		"expires_at": expiresAt.Unix(),
	}

	key := sessionKey(token)
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.client.ExpireAt(ctx, key, expiresAt).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set session expiry")
	}

	return Session{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}

func (s *redisStore) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, apperr.Unauthenticated("authentication required")
	}

	values, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	if len(values) == 0 {
		return Session{}, apperr.Unauthenticated("authentication required")
	}

	userID, err := strconv.ParseUint(values["user_id"], 10, 64)
	if err != nil {
		return Session{}, apperr.Unauthenticated("authentication required")
	}

	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return Session{}, apperr.Unauthenticated("authentication required")
	}

	expiresAt := time.Unix(expiresUnix, 0)
	if !expiresAt.After(s.now()) {
		// The TTL should have evicted the key already; clean up regardless.
		if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to delete expired session")
		}
		return Session{}, apperr.Unauthenticated("authentication required")
	}

	return Session{Token: token, UserID: uint(userID), ExpiresAt: expiresAt}, nil
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
