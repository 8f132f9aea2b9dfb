package httpapi

import (
	"net/http"
	"sync"
	"time"
	"workcore/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const principalKey = "principal_id"

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("principal", c.GetString(principalKey)),
		)
	}
}

// authenticate verifies the bearer token and stores the principal in the
// request context.
func authenticate(tokens *identity.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := identity.BearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		p, err := tokens.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "invalid bearer token")
			return
		}
		c.Set(principalKey, p.ID)
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// rateLimiter keeps one token bucket per principal.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{limiters: make(map[string]*rate.Limiter), limit: rate.Limit(perSecond), burst: burst}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(principalKey)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.get(key).Allow() {
			abort(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		c.Next()
	}
}
