package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"window_calculator/internal/logger"
)

const (
	maxTrackedClients = 10000
	rateLimitPrefix   = "rate_limit:"
)

// INCR + PEXPIRE atomiques : la fenêtre démarre à la première requête et ne glisse pas.
var windowCounter = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limite le nombre de requêtes par IP.
// Avec Redis, le compteur est partagé entre les instances (fenêtre fixe de burst requêtes) ;
// sinon, ou si Redis ne répond pas, chaque instance applique son propre token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	window   time.Duration
	rdb      *redis.Client
	log      *logger.Logger
}

func NewRateLimiter(requestsPerSecond, burst int, log *logger.Logger) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}
	// même débit moyen que le token bucket : burst requêtes toutes les burst/rps secondes
	window := time.Duration(math.Ceil(float64(burst)/float64(requestsPerSecond))) * time.Second

	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		window:   window,
		log:      log,
	}
}

// WithRedis partage les compteurs via Redis. nil garde le mode local.
func (rl *RateLimiter) WithRedis(rdb *redis.Client) *RateLimiter {
	rl.rdb = rdb
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		if len(rl.visitors) >= maxTrackedClients {
			rl.visitors = make(map[string]*visitor)
		}
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// allow retourne false quand le client a épuisé son budget.
func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	if rl.rdb != nil {
		n, err := windowCounter.Run(ctx, rl.rdb, []string{rateLimitPrefix + key}, rl.window.Milliseconds()).Int64()
		if err == nil {
			return n <= int64(rl.burst)
		}
		rl.log.Debug("⚠️ Redis rate limit unavailable, using local limiter", zap.Error(err))
	}
	return rl.limiter(key).Allow()
}

// Cleanup oublie les clients inactifs depuis plus de idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := "1"
	if rl.rdb != nil {
		retryAfter = strconv.Itoa(int(rl.window / time.Second))
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if !rl.allow(c.Request.Context(), key) {
			rl.log.Warn("⚠️ Rate limit exceeded",
				zap.String("ip", key),
				zap.String("path", c.Request.URL.Path))

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   fmt.Sprintf("Too many requests, limit is %v per second", rl.rate),
			})
			return
		}
		c.Next()
	}
}
