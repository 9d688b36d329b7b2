package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agora/internal/models"
	"agora/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoLimiterStore = errors.New("redis client is nil")

// RateLimiter counts requests per resource and caller in Redis fixed windows.
type RateLimiter struct {
	rdb *redis.Client
	env string
	log *slog.Logger
}

// NewRateLimiter builds a limiter. Limits are bypassed when env is test,
// development or stress.
func NewRateLimiter(rdb *redis.Client, env string, log *slog.Logger) *RateLimiter {
	if env == "" {
		env = "development"
	}
	if log == nil {
		log = observability.Discard()
	}
	return &RateLimiter{rdb: rdb, env: env, log: log}
}

// Check reports whether id may hit resource again within window.
func (rl *RateLimiter) Check(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	switch rl.env {
	case "test", "development", "stress":
		return true, nil
	}

	if rl.rdb == nil {
		return false, errNoLimiterStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rl.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window on
// the named resource. It keys by authenticated user when available,
// otherwise by remote IP, and fails open.
func (rl *RateLimiter) Limit(name string, limit int, window time.Duration) fiber.Handler {
	return rl.LimitWithPolicy(name, limit, window, FailOpen)
}

// LimitWithPolicy is Limit with an explicit failure policy.
func (rl *RateLimiter) LimitWithPolicy(name string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalUserID).(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := rl.Check(c.UserContext(), name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				rl.log.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", name), slog.String("error", err.Error()))
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewAppError(models.CodeUnavailable, "rate limit unavailable"))
			}
			return c.Next()
		}

		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewAppError(models.CodeRateLimited, "rate limit exceeded"))
		}
		return c.Next()
	}
}
