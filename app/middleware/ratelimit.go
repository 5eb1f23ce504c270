// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/servicosdigitais/plataforma/app/dto"
)

// LoginRateLimiter throttles login attempts per client IP using a Redis
// fixed window. It runs in front of the credential checks, so hammering the
// endpoint burns the window before it ever reaches bcrypt.
type LoginRateLimiter struct {
	rdb         *redis.Client
	prefix      string
	maxRequests int
	window      time.Duration
}

// NewLoginRateLimiter creates a login rate limiter. A nil Redis client
// disables throttling, which keeps single-process deployments working.
func NewLoginRateLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *LoginRateLimiter {
	if maxRequests <= 0 {
		maxRequests = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginRateLimiter{
		rdb:         rdb,
		prefix:      "ratelimit:login",
		maxRequests: maxRequests,
		window:      window,
	}
}

// Limit is the middleware function enforcing the per-IP window
func (l *LoginRateLimiter) Limit() fiber.Handler {
	return func(c fiber.Ctx) error {
		if l.rdb == nil {
			return c.Next()
		}

		ctx := c.Context()
		key := fmt.Sprintf("%s:%s", l.prefix, c.IP())

		pipe := l.rdb.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis being down must not take logins down with it.
			return c.Next()
		}

		if incr.Val() > int64(l.maxRequests) {
			ttl, err := l.rdb.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = l.window
			}
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(ttl.Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many login attempts, slow down",
				Error:   dto.ErrorDetail{Code: dto.ErrCodeTooManyRequests},
			})
		}

		return c.Next()
	}
}
