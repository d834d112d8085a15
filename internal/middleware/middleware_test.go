package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/utils"
)

const secret = "test-secret"

func token(t *testing.T, sid, role string) string {
	t.Helper()
	tok, err := utils.NewSessionToken(secret, sid, role, 10)
	require.NoError(t, err)
	return tok.Token
}

// whoami echoes what JWTAuth stored.
func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"sid": SessionID(c), "role": Role(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthHeaderAndQuery(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "chart-1", utils.RolePlanner))
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sid":"chart-1","role":"PLANNER"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me?token="+token(t, "chart-2", utils.RoleViewer), nil)
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sid":"chart-2","role":"VIEWER"}`, rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.POST("/edit", whoami, JWTAuth(secret), RequireRole(utils.RolePlanner))

	req := httptest.NewRequest(http.MethodPost, "/edit", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "chart-1", utils.RoleViewer))
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/edit", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "chart-1", utils.RolePlanner))
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func keyContext(sid string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/planner/render?w=800", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/planner/render")
	if sid != "" {
		c.Set(CtxSessionID, sid)
	}
	return c
}

func TestBuildRateKey(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_session_route"}
	assert.Equal(t, "rl:ip:10.0.0.7:session:chart-1:route:GET /v1/planner/render", buildRateKey(cfg, keyContext("chart-1")))

	cfg.KeyStrategy = "session"
	assert.Equal(t, "rl:session:anonymous", buildRateKey(cfg, keyContext("")))
}

func TestCacheKeySeparatesSessions(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "pc", KeyStrategy: "session_route_query"}
	a := cacheKeyFrom(cfg, keyContext("chart-1"), "")
	b := cacheKeyFrom(cfg, keyContext("chart-2"), "")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, cacheKeyFrom(cfg, keyContext("chart-1"), ""))

	cfg.KeyStrategy = "route_query"
	assert.Equal(t, cacheKeyFrom(cfg, keyContext("chart-1"), ""), cacheKeyFrom(cfg, keyContext("chart-2"), ""))
}

func TestCacheKeyFollowsRevision(t *testing.T) {
	for _, strategy := range []string{"route_query", "session_route", "method_session_route_query", ""} {
		cfg := config.CacheConfig{Prefix: "pc", KeyStrategy: strategy}
		before := cacheKeyFrom(cfg, keyContext("chart-1"), "3")
		assert.NotEqual(t, before, cacheKeyFrom(cfg, keyContext("chart-1"), "4"), strategy)
		assert.Equal(t, before, cacheKeyFrom(cfg, keyContext("chart-1"), "3"), strategy)
	}
}

func TestCacheReplaysOnlyTheCurrentRevision(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	rev, renders := 1, 0
	cfg := config.CacheConfig{
		Enabled: true,
		Prefix:  "pc-test-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		TTL:     time.Minute,
		Methods: map[string]bool{http.MethodGet: true},
	}
	mw := NewRedisCache(cfg, rdb, func(echo.Context) (string, bool) { return strconv.Itoa(rev), true })
	e := echo.New()
	e.GET("/render", func(c echo.Context) error {
		renders++
		return c.String(http.StatusOK, "render "+strconv.Itoa(rev))
	}, mw)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/render", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/render", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "render 1", rec.Body.String())

	rev = 2
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/render", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "render 2", rec.Body.String())
	assert.Equal(t, 2, renders)
}

func TestCacheSkipsUnversionedRequests(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.CacheConfig{Enabled: true, Prefix: "pc-test", Methods: map[string]bool{http.MethodGet: true}}
	e := echo.New()
	e.GET("/render", func(c echo.Context) error { return c.String(http.StatusOK, "x") },
		NewRedisCache(cfg, rdb, func(echo.Context) (string, bool) { return "", false }))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/render", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"image/svg+xml"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte("<svg/>"))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "image/svg+xml", got.Get("Content-Type"))
	assert.Equal(t, "<svg/>", string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil),
	)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Replace(zap.New(core))
	t.Cleanup(func() { logging.Replace(zap.NewNop()) })

	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/me", whoami, JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "chart-1", utils.RolePlanner))
	serve(e, req)
	serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, int64(200), first["status"])
	assert.Equal(t, "chart-1", first["session"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
}
