package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultItemLockTTL = 15 * time.Second

// ItemLocker marks a line item as processing so a second mutation on the same
// item is refused while other items stay free.
type ItemLocker interface {
	// Acquire returns ok=false when the item is already processing.
	Acquire(ctx context.Context, userID, itemKey string) (release func(), ok bool, err error)
}

type lockKV interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	ItemLockKey(userID, itemKey string) string
}

// RedisItemLocker implements ItemLocker with SETNX + TTL. The TTL bounds how
// long a crashed request can keep an item blocked.
type RedisItemLocker struct {
	kv  lockKV
	ttl time.Duration
}

func NewRedisItemLocker(kv lockKV, ttl time.Duration) (*RedisItemLocker, error) {
	if kv == nil {
		return nil, errors.New("redis client required for item locks")
	}
	if ttl <= 0 {
		ttl = defaultItemLockTTL
	}
	return &RedisItemLocker{kv: kv, ttl: ttl}, nil
}

func (l *RedisItemLocker) Acquire(ctx context.Context, userID, itemKey string) (func(), bool, error) {
	key := l.kv.ItemLockKey(userID, itemKey)
	owner := uuid.NewString()
	ok, err := l.kv.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx item lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// The request context may already be canceled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, owner)
	}
	return release, true, nil
}

// release frees the lock only if this request still owns it; an expired lock
// may already belong to a newer request.
func (l *RedisItemLocker) release(ctx context.Context, key, owner string) error {
	if _, err := l.kv.DelIfValue(ctx, key, owner); err != nil {
		return fmt.Errorf("release item lock: %w", err)
	}
	return nil
}
