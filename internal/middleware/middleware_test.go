package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"window_calculator/internal/logger"
	"window_calculator/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(CartSession(NewCookieStore("test-secret", false), logger.Nop()))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"gin": CartID(c),
			"ctx": session.CartID(c.Request.Context()),
		})
	})
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CartSessionName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CartSessionName)
	return nil
}

func TestCartSession_IssuesAndReusesCartID(t *testing.T) {
	r := sessionRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	first := rec.Body.String()
	assert.Contains(t, first, `"gin":"`)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)

	assert.Equal(t, first, rec2.Body.String())
	assert.Empty(t, rec2.Result().Cookies(), "existing session should not be re-issued")
}

func TestCartSession_TamperedCookieGetsNewID(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionName, Value: "forged-value"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sessionCookie(t, rec)
}

func TestCartSession_IDsAreUUIDs(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(CartSession(NewCookieStore("test-secret", false), logger.Nop()))
	r.GET("/", func(c *gin.Context) { seen = CartID(c) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestRateLimiter(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rl := NewRateLimiter(1, 2, logger.Wrap(zap.New(core), false))

	r := gin.New()
	r.POST("/api/calculations", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/calculations", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, 1, logs.Len())

	// un autre client a son propre bucket
	req := httptest.NewRequest(http.MethodPost, "/api/calculations", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rl.Cleanup(-time.Second)
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(logger.Wrap(zap.New(core), false)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, p := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}

func TestRateLimiter_SharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// deux instances derrière le même Redis : 1 req/s, burst 2 => 2 requêtes par fenêtre de 2s
	newInstance := func() *gin.Engine {
		rl := NewRateLimiter(1, 2, logger.Nop()).WithRedis(rdb)
		r := gin.New()
		r.POST("/api/calculations", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	a, b := newInstance(), newInstance()

	post := func(r *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/calculations", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post(a).Code)
	assert.Equal(t, http.StatusOK, post(b).Code)
	rec := post(a)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	ttl := mr.TTL(rateLimitPrefix + "10.0.0.1")
	assert.True(t, ttl > 0 && ttl <= 2*time.Second, "ttl=%v", ttl)

	mr.FastForward(2 * time.Second)
	assert.Equal(t, http.StatusOK, post(b).Code)
}

func TestRateLimiter_RedisDownFallsBackToLocal(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rl := NewRateLimiter(1, 1, logger.Nop()).WithRedis(rdb)
	r := gin.New()
	r.POST("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 429}, codes)
}
