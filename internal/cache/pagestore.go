package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// PagePrefix namespaces rendered page entries in Redis.
const PagePrefix = "page:"

const redisOpTimeout = 2 * time.Second

// PageStore holds rendered responses for the fiber cache middleware.
// It is backed by Redis when a client is given and by an in-process map otherwise.
// Reset drops every cached page at once.
type PageStore struct {
	rdb *redis.Client

	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	val       []byte
	expiresAt time.Time // zero means no expiry
}

var _ fiber.Storage = (*PageStore)(nil)

// NewPageStore returns a page store over rdb, or an in-memory one when rdb is nil.
func NewPageStore(rdb *redis.Client) *PageStore {
	return &PageStore{
		rdb:     rdb,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the stored value, or nil without error when the key is absent or expired.
func (s *PageStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		val, err := s.rdb.Get(ctx, PagePrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return e.val, nil
}

// Set stores val under key for exp; a zero exp keeps it until Reset.
func (s *PageStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		return s.rdb.Set(ctx, PagePrefix+key, val, exp).Err()
	}

	e := memoryEntry{val: append([]byte(nil), val...)}
	if exp > 0 {
		e.expiresAt = s.now().Add(exp)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes one entry.
func (s *PageStore) Delete(key string) error {
	if key == "" {
		return nil
	}
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		return s.rdb.Del(ctx, PagePrefix+key).Err()
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Reset clears every cached page.
func (s *PageStore) Reset() error {
	observability.PageCacheResults.WithLabelValues("reset").Inc()
	if s.rdb != nil {
		return s.resetRedis(context.Background())
	}

	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *PageStore) resetRedis(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, PagePrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *PageStore) Close() error {
	return nil
}
