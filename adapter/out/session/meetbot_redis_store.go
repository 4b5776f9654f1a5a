// Package session provides keyed dialog-state stores.
package session

import (
	"context"
	"fmt"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/cache"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions as JSON values in Redis, one key per normalized
// user id. SET and DEL are single atomic commands, so concurrent duplicate
// deliveries resolve last-writer-wins. The TTL expires abandoned dialogs.
type RedisStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(c *cache.RedisCache, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{cache: c, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var session domain.Session
	found, err := s.cache.GetJSON(ctx, sessionKeyPrefix+userID, &session)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, session *domain.Session) error {
	if err := s.cache.SetJSON(ctx, sessionKeyPrefix+session.UserID, session, s.ttl); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

var _ out.SessionStore = (*RedisStore)(nil)
