package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-behavior-tracker/internal/config"
	"github.com/iliyamo/school-behavior-tracker/internal/logging"
	"github.com/iliyamo/school-behavior-tracker/internal/session"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/login")
	c.SetPath("/api/login")
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /api/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))
	SetUserID(c, 12)
	assert.Equal(t, "rl:user:12", buildRateKey(cfg, c))
}

func TestCacheKeyFrom(t *testing.T) {
	c1, _ := newContext(http.MethodGet, "/api/behaviors/stats?a=1")
	c1.SetPath("/api/behaviors/stats")
	c2, _ := newContext(http.MethodGet, "/api/behaviors/stats?a=2")
	c2.SetPath("/api/behaviors/stats")

	cfg := config.CacheConfig{Prefix: "cache:stats", KeyStrategy: "route"}
	k1 := cacheKeyFrom(cfg, c1)
	assert.Equal(t, k1, cacheKeyFrom(cfg, c2))
	assert.Regexp(t, `^cache:stats:[0-9a-f]{40}$`, k1)

	cfg.KeyStrategy = "route_query"
	assert.NotEqual(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"total":3}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"total":3}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(6), cw.size)
	assert.Equal(t, "abcdef", rec.Body.String())
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	log := logging.Discard()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	c, rec := newContext(http.MethodGet, "/")
	h := NewResponseCache(config.CacheConfig{Enabled: true}, nil, log).Middleware()(handler)
	require.NoError(t, h(c))
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))

	c, rec = newContext(http.MethodPost, "/api/login")
	h = NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log)(handler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NoError(t, NewResponseCache(config.CacheConfig{}, nil, log).Invalidate(context.Background()))
}

func TestSessionsAndRequireAuth(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "s", TTL: time.Hour})
	login := httptest.NewRecorder()
	_, err := m.Start(ctx, login, httptest.NewRequest(http.MethodPost, "/api/login", nil), 42)
	require.NoError(t, err)

	var seen uint64
	handler := func(c echo.Context) error {
		seen, _ = UserID(c)
		return c.NoContent(http.StatusOK)
	}
	chain := Sessions(m, logging.Discard())(RequireAuth()(handler))

	c, rec := newContext(http.MethodGet, "/api/user")
	for _, ck := range login.Result().Cookies() {
		c.Request().AddCookie(ck)
	}
	require.NoError(t, chain(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), seen)
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie should be renewed")

	c, rec = newContext(http.MethodGet, "/api/user")
	require.NoError(t, chain(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}
