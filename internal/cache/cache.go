// Package cache stores banshee responses that rarely change, such as the
// server configuration and detection interval, so console replicas do not
// refetch them on every page.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/redis/rueidis"
)

// Store is a byte cache keyed by string. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, expiring after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New returns a redis Store when the cache is enabled and an in-memory
// Store otherwise.
func New(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return NewMemory(), nil
	}
	return newRedisStore(cfg)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() Store {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

// redisStore is a Store backed by redis. Keys carry the "banshee_console:"
// prefix so a shared redis can host it.
type redisStore struct {
	client rueidis.Client
}

func newRedisStore(cfg config.CacheConfig) (Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required when the cache is enabled")
	}
	opts := rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
	}
	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.SelectDB = cfg.DB
	}
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return &redisStore{client: client}, nil
}

func (r *redisStore) key(key string) string {
	return "banshee_console:" + key
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Do(ctx, r.client.B().Get().Key(r.key(key)).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	cmd := r.client.B().Set().Key(r.key(key)).Value(rueidis.BinaryString(value)).ExSeconds(seconds).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisStore) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
