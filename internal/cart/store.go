package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps cart sessions between requests.
type SessionStore interface {
	// Load returns nil, nil when the user has no live session.
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Drop(ctx context.Context, userID string) error
}

type sessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartSessionKey(userID string) string
}

// RedisSessionStore serializes sessions as JSON under a sliding TTL.
type RedisSessionStore struct {
	kv  sessionKV
	ttl time.Duration
}

// NewRedisSessionStore builds a session store on the shared Redis client.
func NewRedisSessionStore(kv sessionKV, ttl time.Duration) (*RedisSessionStore, error) {
	if kv == nil {
		return nil, errors.New("redis client required for cart sessions")
	}
	if ttl <= 0 {
		return nil, errors.New("cart session ttl must be positive")
	}
	return &RedisSessionStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisSessionStore) Load(ctx context.Context, userID string) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartSessionKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart session: %w", err)
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A session that cannot be decoded is treated as missing and rebuilt.
		return nil, nil
	}
	if session.Selected == nil {
		session.Selected = map[string]bool{}
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == "" {
		return errors.New("cart session requires a user id")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartSessionKey(session.UserID), raw, s.ttl); err != nil {
		return fmt.Errorf("write cart session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Drop(ctx context.Context, userID string) error {
	if err := s.kv.Del(ctx, s.kv.CartSessionKey(userID)); err != nil {
		return fmt.Errorf("drop cart session: %w", err)
	}
	return nil
}
