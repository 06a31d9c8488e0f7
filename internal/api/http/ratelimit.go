package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/trafficwatch/problem-service/internal/auth"
	apperrors "github.com/trafficwatch/problem-service/pkg/util"
)

// RateLimiter caps how often a user may hit an endpoint group within the
// window. Counters live in Redis: INCR per user key, TTL set on the first hit.
// A nil client or non-positive limit disables the limiter.
func RateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}
		principal, ok := auth.PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("Morate biti ulogovani")
		}

		key := prefix + ":" + principal.User.ID
		ctx := c.UserContext()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				return apperrors.NewInternalError(err)
			}
		}
		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
		}
		return c.Next()
	}
}
