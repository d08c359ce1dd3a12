package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FakeCmdable is an in-memory command surface for tests in other packages.
// TTLs are recorded but never enforced.
type FakeCmdable struct {
	mu   sync.Mutex
	data map[string]string
	TTLs map[string]time.Duration
}

// NewFakeCmdable returns an empty fake store.
func NewFakeCmdable() *FakeCmdable {
	return &FakeCmdable{
		data: make(map[string]string),
		TTLs: make(map[string]time.Duration),
	}
}

func (m *FakeCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *FakeCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stringify(value)
	m.TTLs[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *FakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *FakeCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	m.TTLs[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *FakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			removed++
		}
		delete(m.data, key)
		delete(m.TTLs, key)
	}
	return redis.NewIntResult(removed, nil)
}

// Has reports whether key currently holds a value.
func (m *FakeCmdable) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
