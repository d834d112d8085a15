package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/model"
)

func TestKeyNamespacing(t *testing.T) {
	c := NewMemory(config.SessionConfig{Prefix: "p"})
	assert.Equal(t, "p:abc:canvasTransform", c.Key("abc", KeyCanvasTransform))
	assert.Equal(t, "planner:abc:tableDimensions", NewMemory(config.SessionConfig{}).Key("abc", KeyTableDimensions))
}

func exerciseCache(t *testing.T, c *Cache) {
	t.Helper()
	ctx := context.Background()
	sid := "s-" + t.Name()
	t.Cleanup(func() { _ = c.Clear(ctx, sid) })

	raw, err := c.LoadTransform(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, c.SaveTransform(ctx, sid, model.CanvasTransform{X: 10, Y: -4, Scale: 1.5}))
	raw, err = c.LoadTransform(ctx, sid)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":10,"y":-4,"scale":1.5}`, string(raw))

	in := []model.Assignment{{GuestID: "g1", TableID: "t1", SeatIndex: 2, Seq: 1}}
	require.NoError(t, c.SaveAssignments(ctx, sid, in))
	got, ok, err := c.LoadAssignments(ctx, sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, got)

	pos := []model.TablePosition{{TableID: "t1", X: 100, Y: 50, Rotation: 90}}
	require.NoError(t, c.SavePositions(ctx, sid, pos))
	gotPos, ok, err := c.LoadPositions(ctx, sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos, gotPos)

	dims := map[string]model.TableDimensions{"t1": {Width: 200, Height: 90}}
	require.NoError(t, c.SaveDimensions(ctx, sid, dims))
	gotDims, ok, err := c.LoadDimensions(ctx, sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dims, gotDims)

	rev, err := c.Revision(ctx, sid)
	require.NoError(t, err)
	next, err := c.BumpRevision(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, rev+1, next)
	rev, err = c.Revision(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, next, rev)

	require.NoError(t, c.Clear(ctx, sid))
	_, ok, err = c.LoadAssignments(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemory(config.SessionConfig{TTL: time.Hour}))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	exerciseCache(t, New(rdb, config.SessionConfig{Prefix: "planner-test", TTL: time.Minute}))
}

func TestMalformedValueIsAbsent(t *testing.T) {
	b := newMemoryBackend()
	c := NewWithBackend(b, config.SessionConfig{})
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, c.Key("s", KeyGuestAssignments), []byte("{not json"), 0))

	got, ok, err := c.LoadAssignments(ctx, "s")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryBackendExpires(t *testing.T) {
	b := newMemoryBackend()
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, _ := b.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = b.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRevisionSurvivesClear(t *testing.T) {
	c := NewMemory(config.SessionConfig{TTL: time.Hour})
	ctx := context.Background()

	rev, err := c.Revision(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, rev)

	_, err = c.BumpRevision(ctx, "s")
	require.NoError(t, err)
	n, err := c.BumpRevision(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, c.Clear(ctx, "s"))
	n, err = c.BumpRevision(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestMemoryIncrRestartsAfterExpiry(t *testing.T) {
	b := newMemoryBackend()
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := b.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	now = now.Add(2 * time.Minute)
	n, err = b.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
