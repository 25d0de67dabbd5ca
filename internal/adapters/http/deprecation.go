package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// httpDate is the IMF-fixdate layout HTTP date headers use.
const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// DeprecatedRoute marks an endpoint as deprecated with a sunset date.
type DeprecatedRoute struct {
	SunsetDate  time.Time
	Alternative string // successor endpoint, optional
}

// Deprecated wraps a route with RFC 8594 Deprecation/Sunset headers and a
// successor-version Link.
func Deprecated(d DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		if !d.SunsetDate.IsZero() {
			c.Set("Sunset", d.SunsetDate.UTC().Format(httpDate))
			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
		}
		if d.Alternative != "" {
			c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}
		return c.Next()
	}
}
