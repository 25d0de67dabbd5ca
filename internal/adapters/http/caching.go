package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control on GET responses that did
// not set one themselves.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		if ttl := defaultCacheControl(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

func defaultCacheControl(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics" || strings.HasPrefix(path, "/ws"):
		return "no-cache"
	case path == "/v1/map/budget":
		// Pure function of the query.
		return "public, max-age=86400"
	case path == "/v1/map/initial-region":
		return "private, max-age=60"
	case path == "/v1/clinics" || path == "/v1/clinics/nearby":
		return "public, max-age=300"
	case strings.HasPrefix(path, "/v1/clinics/"):
		return "public, max-age=600"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	}
	return ""
}
