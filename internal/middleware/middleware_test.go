package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "menu-cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	cache := NewRedisCache(cacheConfig(), rdb, logger.Nop())
	e.GET("/v1/client/company/:companyName", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"company": c.Param("companyName"), "n": calls})
	}, cache)
	e.GET("/v1/client/:catalogId/section/:sectionId", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, cache)

	first := do(e, http.MethodGet, "/v1/client/company/Esperoo", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(e, http.MethodGet, "/v1/client/company/Esperoo", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	do(e, http.MethodGet, "/v1/client/7/section/abc", nil)
	assert.Equal(t, 2, calls)

	n, err := InvalidateCacheTags(context.Background(), rdb, "menu-cache", CacheTag("companyName", "Esperoo"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	third := do(e, http.MethodGet, "/v1/client/company/Esperoo", nil)
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)

	// the section response carries another tag and survives
	section := do(e, http.MethodGet, "/v1/client/7/section/abc", nil)
	assert.Equal(t, "HIT", section.Header().Get("X-Cache"))
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 16
	e := echo.New()
	cache := NewRedisCache(cfg, rdb, logger.Nop())
	e.GET("/missing/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
	}, cache)
	e.GET("/large/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "this body is definitely longer than sixteen bytes")
	}, cache)

	do(e, http.MethodGet, "/missing/1", nil)
	do(e, http.MethodGet, "/large/1", nil)
	assert.Empty(t, mr.Keys())
}

func TestCacheTagNormalizesEscapes(t *testing.T) {
	assert.Equal(t, CacheTag("companyName", "Chez Paul"), CacheTag("companyName", "Chez%20Paul"))
	assert.Equal(t, CacheTag("companyName", "Chez Paul"), CacheTag("companyName", " Chez Paul "))
	assert.NotEqual(t, CacheTag("companyName", "1"), CacheTag("catalogId", "1"))
}

func TestPaddedCompanyNameIsEvictedWithCompany(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/v1/client/company/:companyName", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, NewRedisCache(cacheConfig(), rdb, logger.Nop()))

	do(e, http.MethodGet, "/v1/client/company/Esperoo%20", nil)
	assert.Equal(t, "HIT", do(e, http.MethodGet, "/v1/client/company/Esperoo%20", nil).Header().Get("X-Cache"))

	n, err := InvalidateCacheTags(context.Background(), rdb, "menu-cache", CacheTag("companyName", "Esperoo"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/client/company/Esperoo%20", nil).Header().Get("X-Cache"))
}

func TestInvalidateCacheTagsMatchesLiterally(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("menu-cache:companyName-1:k", "x"))
	require.NoError(t, mr.Set("menu?cache:companyName-1:k", "x"))

	n, err := InvalidateCacheTags(context.Background(), rdb, "menu?cache", "companyName-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists("menu-cache:companyName-1:k"))
	assert.False(t, mr.Exists("menu?cache:companyName-1:k"))

	n, err = InvalidateCacheTags(context.Background(), rdb, "menu-cache", "*")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, mr.Exists("menu-cache:companyName-1:k"))

	assert.Equal(t, `a\*b\?\[c\]\\`, escapeGlob(`a*b?[c]\`))
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "menu-rl",
	}
	e := echo.New()
	e.GET("/v1/client/item/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb, logger.Nop()))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/client/item/1", nil).Code)
	rec := do(e, http.MethodGet, "/v1/client/item/2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	blocked := do(e, http.MethodGet, "/v1/client/item/3", nil)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "menu-rl"}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb, logger.Nop()))
	mr.Close()

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	const secret = "test-secret"
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": c.Get(UserIDKey), "role": c.Get(RoleKey)})
	}, JWTAuth(secret), RequireRole("OWNER", "MANAGER"))

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer garbage"}}).Code)

	other, err := utils.NewAccessToken("other-secret", 7, "OWNER", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + other.Token}}).Code)

	guest, err := utils.NewAccessToken(secret, 7, "GUEST", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + guest.Token}}).Code)

	owner, err := utils.NewAccessToken(secret, 7, "OWNER", 5)
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + owner.Token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":7,"role":"OWNER"}`, rec.Body.String())
}

func TestSubjectID(t *testing.T) {
	id, ok := subjectID("42")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	id, ok = subjectID(float64(9))
	assert.True(t, ok)
	assert.Equal(t, uint64(9), id)

	_, ok = subjectID("0")
	assert.False(t, ok)
	_, ok = subjectID(nil)
	assert.False(t, ok)
}
