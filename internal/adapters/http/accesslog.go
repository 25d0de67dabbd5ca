package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys handlers use to add label plan details to the access log.
const (
	localPlanBudget  = "plan_budget"
	localPlanLabeled = "plan_labeled"
)

// quietPaths are polled constantly and only logged at debug level.
var quietPaths = map[string]bool{
	"/metrics":   true,
	"/v1/health": true,
	"/v1/ready":  true,
}

// AccessLogMiddleware writes one structured line per request through the
// request-scoped logger. Server errors log at error level, client errors at warn.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		case quietPaths[path]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if budget, ok := c.Locals(localPlanBudget).(int); ok {
			attrs = append(attrs, slog.Int("budget", budget))
		}
		if labeled, ok := c.Locals(localPlanLabeled).(int); ok {
			attrs = append(attrs, slog.Int("labeled", labeled))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		ctx := c.UserContext()
		LoggerFromCtx(ctx).LogAttrs(ctx, level, method+" "+path, attrs...)
		return err
	}
}
