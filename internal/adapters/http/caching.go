package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/chargers/nearby") || strings.HasPrefix(path, "/v1/chargers/search"):
			ttl = "public, max-age=300" // provider results are cached server-side too

		case strings.HasPrefix(path, "/v1/chargers/clusters"):
			ttl = "public, max-age=120" // viewport queries change with every pan

		case strings.HasPrefix(path, "/v1/geocode"):
			ttl = "public, max-age=3600" // place data is stable

		case path == "/v1/plans/stats":
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/v1/plans"):
			ttl = "private, max-age=0" // stored plans are per-user

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
