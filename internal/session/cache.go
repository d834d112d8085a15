// Package session is the per-planner-session cache.  Each session owns four
// fixed keys (canvas transform, guest assignments, table positions, table
// dimensions) stored as JSON under <prefix>:<session>:<key>.  Redis is used
// when available; otherwise values live in process memory.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
)

const (
	KeyCanvasTransform  = "canvasTransform"
	KeyGuestAssignments = "guestAssignments"
	KeyTablePositions   = "tablePositions"
	KeyTableDimensions  = "tableDimensions"

	// KeyRevision counts writes to the session.  It is left to expire on
	// its own so a cleared session never repeats an old revision.
	KeyRevision = "revision"
)

// Keys lists every fixed session key.
var Keys = []string{KeyCanvasTransform, KeyGuestAssignments, KeyTablePositions, KeyTableDimensions}

// Cache reads and writes the session keys.
type Cache struct {
	b      Backend
	prefix string
	ttl    time.Duration
}

// New returns a Redis-backed cache, or a memory-backed one when rdb is nil.
func New(rdb *redis.Client, cfg config.SessionConfig) *Cache {
	if rdb == nil {
		logging.Log.Warn("session cache: redis unavailable, using process memory")
		return NewWithBackend(newMemoryBackend(), cfg)
	}
	return NewWithBackend(redisBackend{rdb: rdb}, cfg)
}

// NewMemory returns a cache held in process memory.
func NewMemory(cfg config.SessionConfig) *Cache {
	return NewWithBackend(newMemoryBackend(), cfg)
}

// NewWithBackend wires an arbitrary backend.
func NewWithBackend(b Backend, cfg config.SessionConfig) *Cache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "planner"
	}
	return &Cache{b: b, prefix: prefix, ttl: cfg.TTL}
}

// Key returns the namespaced storage key.
func (c *Cache) Key(sessionID, name string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, sessionID, name)
}

// LoadTransform returns the raw stored transform.  Callers pass it to
// canvas.RestoreViewport, which tolerates nil and malformed input.
func (c *Cache) LoadTransform(ctx context.Context, sessionID string) ([]byte, error) {
	bs, _, err := c.b.Get(ctx, c.Key(sessionID, KeyCanvasTransform))
	return bs, err
}

func (c *Cache) SaveTransform(ctx context.Context, sessionID string, t model.CanvasTransform) error {
	return c.save(ctx, sessionID, KeyCanvasTransform, t)
}

// LoadAssignments reports ok=false when nothing usable is cached.
func (c *Cache) LoadAssignments(ctx context.Context, sessionID string) ([]model.Assignment, bool, error) {
	var out []model.Assignment
	ok, err := c.load(ctx, sessionID, KeyGuestAssignments, &out)
	return out, ok, err
}

func (c *Cache) SaveAssignments(ctx context.Context, sessionID string, a []model.Assignment) error {
	if a == nil {
		a = []model.Assignment{}
	}
	return c.save(ctx, sessionID, KeyGuestAssignments, a)
}

func (c *Cache) LoadPositions(ctx context.Context, sessionID string) ([]model.TablePosition, bool, error) {
	var out []model.TablePosition
	ok, err := c.load(ctx, sessionID, KeyTablePositions, &out)
	return out, ok, err
}

func (c *Cache) SavePositions(ctx context.Context, sessionID string, p []model.TablePosition) error {
	if p == nil {
		p = []model.TablePosition{}
	}
	return c.save(ctx, sessionID, KeyTablePositions, p)
}

// LoadDimensions returns custom table sizes keyed by table id.
func (c *Cache) LoadDimensions(ctx context.Context, sessionID string) (map[string]model.TableDimensions, bool, error) {
	var out map[string]model.TableDimensions
	ok, err := c.load(ctx, sessionID, KeyTableDimensions, &out)
	return out, ok, err
}

func (c *Cache) SaveDimensions(ctx context.Context, sessionID string, d map[string]model.TableDimensions) error {
	if d == nil {
		d = map[string]model.TableDimensions{}
	}
	return c.save(ctx, sessionID, KeyTableDimensions, d)
}

// Clear removes every key of a session.
func (c *Cache) Clear(ctx context.Context, sessionID string) error {
	keys := make([]string, 0, len(Keys))
	for _, k := range Keys {
		keys = append(keys, c.Key(sessionID, k))
	}
	return c.b.Del(ctx, keys...)
}

// Revision returns the session write counter, zero before the first write.
func (c *Cache) Revision(ctx context.Context, sessionID string) (int64, error) {
	bs, ok, err := c.b.Get(ctx, c.Key(sessionID, KeyRevision))
	if err != nil {
		return 0, fmt.Errorf("session %s: read %s: %w", sessionID, KeyRevision, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(bs), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session %s: read %s: %w", sessionID, KeyRevision, err)
	}
	return n, nil
}

// BumpRevision advances the write counter and returns the new value.
func (c *Cache) BumpRevision(ctx context.Context, sessionID string) (int64, error) {
	n, err := c.b.Incr(ctx, c.Key(sessionID, KeyRevision), c.ttl)
	if err != nil {
		return 0, fmt.Errorf("session %s: bump %s: %w", sessionID, KeyRevision, err)
	}
	return n, nil
}

func (c *Cache) save(ctx context.Context, sessionID, name string, v any) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session %s: encode %s: %w", sessionID, name, err)
	}
	if err := c.b.Set(ctx, c.Key(sessionID, name), bs, c.ttl); err != nil {
		return fmt.Errorf("session %s: write %s: %w", sessionID, name, err)
	}
	return nil
}

// load decodes a key into v.  Corrupt values count as absent.
func (c *Cache) load(ctx context.Context, sessionID, name string, v any) (bool, error) {
	bs, ok, err := c.b.Get(ctx, c.Key(sessionID, name))
	if err != nil {
		return false, fmt.Errorf("session %s: read %s: %w", sessionID, name, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(bs, v); err != nil {
		logging.Log.Debug("session cache: discarding malformed value",
			zap.String("session", sessionID), zap.String("key", name), zap.Error(err))
		return false, nil
	}
	return true, nil
}
