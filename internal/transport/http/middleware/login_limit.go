package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

const loginLimitProblemType = "/problems/too-many-login-attempts"

// loginLimitProblem is the RFC 9457 payload returned on throttled logins.
type loginLimitProblem struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// LoginRateLimiter throttles /login by client IP over a sliding window. Store
// failures never block a login: the directory bind stays the authority and the
// limiter degrades to a pass-through.
type LoginRateLimiter struct {
	store  port.LoginAttemptStore
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewLoginRateLimiter allows limit attempts per client IP within window.
func NewLoginRateLimiter(store port.LoginAttemptStore, limit int, window time.Duration, logger *zap.Logger) *LoginRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginRateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a clock for tests.
func (l *LoginRateLimiter) WithClock(now func() time.Time) *LoginRateLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Middleware returns the gin handler enforcing the limit.
func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.store == nil || l.limit <= 0 || l.window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		now := l.now()
		key := "login:" + ip
		retryAfter, blocked, err := l.admit(c, key, now)
		if err != nil {
			l.logger.Warn("login throttle check failed, allowing request",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if blocked {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, loginLimitProblem{
				Type:       loginLimitProblemType,
				Title:      "Too Many Login Attempts",
				Status:     http.StatusTooManyRequests,
				Detail:     fmt.Sprintf("Login throttled. Retry in %d seconds.", retryAfter),
				RetryAfter: retryAfter,
				TraceID:    GetTraceID(c),
			})
			return
		}

		c.Next()
	}
}

// admit prunes the window, counts attempts, and either records the new
// attempt or computes how long until the oldest one slides out.
func (l *LoginRateLimiter) admit(c *gin.Context, key string, now time.Time) (retryAfter int, blocked bool, err error) {
	ctx := c.Request.Context()
	since := now.Add(-l.window)

	if err := l.store.Prune(ctx, key, since); err != nil {
		return 0, false, err
	}

	count, err := l.store.CountSince(ctx, key, since)
	if err != nil {
		return 0, false, err
	}

	if count < l.limit {
		if err := l.store.Record(ctx, key, now); err != nil {
			return 0, false, err
		}
		remaining := l.limit - count - 1
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return 0, false, nil
	}

	oldest, found, err := l.store.OldestSince(ctx, key, since)
	if err != nil {
		return 0, false, err
	}

	wait := l.window
	if found {
		wait = oldest.Add(l.window).Sub(now)
	}
	retryAfter = int((wait + time.Second - 1) / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
	c.Header("X-RateLimit-Remaining", "0")
	return retryAfter, true, nil
}
