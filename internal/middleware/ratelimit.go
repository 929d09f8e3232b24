package middleware

import (
	"fmt"
	"log"
	"time"

	"disha/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// GlobalRateLimiter is the first line of defense for all API requests,
// keyed by client IP.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": 60,
			})
		},
	})
}

// ChatRateLimiter limits chat turns per user per minute using Redis so the
// limit holds across instances. When Redis is unavailable the limiter fails
// open: chat keeps working without per-user limits.
func ChatRateLimiter(redis *services.RedisService, perMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redis == nil || perMinute <= 0 {
			return c.Next()
		}

		userID := c.Params("userID")
		if userID == "" {
			var body struct {
				UserID string `json:"user_id"`
			}
			if err := c.BodyParser(&body); err == nil {
				userID = body.UserID
			}
		}
		if userID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:chat:%s", userID)
		remaining, exceeded, err := redis.CheckRateLimit(c.Context(), key, int64(perMinute), time.Minute)
		if err != nil {
			log.Printf("⚠️ [RATE-LIMIT] Redis check failed, allowing request: %v", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if exceeded {
			log.Printf("🚫 [RATE-LIMIT] Chat limit reached for user: %s", userID)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "You're sending messages too quickly. Please wait a moment.",
				"retry_after": 60,
			})
		}

		return c.Next()
	}
}
