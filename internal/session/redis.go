package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps visit flags in Redis under one key per session and screen.
// Keys expire after ttl, which bounds the session's lifetime.
type RedisStore struct {
	client    redis.UniversalClient
	sessionID string
	ttl       time.Duration
}

func NewRedisStore(client redis.UniversalClient, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, sessionID: sessionID, ttl: ttl}
}

func (s *RedisStore) key(screen string) string {
	return fmt.Sprintf("session:%s:visited:%s", s.sessionID, screen)
}

func (s *RedisStore) Visited(ctx context.Context, screen string) (bool, error) {
	if screen == "" {
		return false, errors.New("screen cannot be empty")
	}
	n, err := s.client.Exists(ctx, s.key(screen)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkVisited(ctx context.Context, screen string) error {
	if screen == "" {
		return errors.New("screen cannot be empty")
	}
	if err := s.client.Set(ctx, s.key(screen), "true", s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
