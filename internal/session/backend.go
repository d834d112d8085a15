package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is the raw byte store behind a Cache.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr adds one to the integer at key, starting from zero, and
	// refreshes its ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisBackend struct {
	rdb *redis.Client
}

func (b redisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := b.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return bs, true, nil
}

func (b redisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, val, ttl).Err()
}

func (b redisBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.rdb.Del(ctx, keys...).Err()
}

func (b redisBackend) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := b.rdb.TxPipeline()
	n := pipe.Incr(ctx, key)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return n.Val(), nil
}

type memEntry struct {
	val []byte
	exp time.Time
}

// memoryBackend keeps values in process memory.  It is used when Redis is
// unreachable at startup and in tests.
type memoryBackend struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{m: make(map[string]memEntry), now: time.Now}
}

func (b *memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !b.now().Before(e.exp) {
		delete(b.m, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (b *memoryBackend) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = b.now().Add(ttl)
	}
	b.m[key] = e
	return nil
}

func (b *memoryBackend) Del(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.m, k)
	}
	return nil
}

func (b *memoryBackend) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	if e, ok := b.m[key]; ok && (e.exp.IsZero() || b.now().Before(e.exp)) {
		v, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %s: %w", key, err)
		}
		n = v
	}
	n++
	e := memEntry{val: []byte(strconv.FormatInt(n, 10))}
	if ttl > 0 {
		e.exp = b.now().Add(ttl)
	}
	b.m[key] = e
	return n, nil
}
