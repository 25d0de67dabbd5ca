package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

var errDisconnected = errors.New("disconnected")

// probe checks one backing service. A nil check means not configured.
type probe struct {
	name     string
	required bool
	check    func(ctx context.Context) error
}

func readinessProbes(deps *Dependencies) []probe {
	db := probe{name: "database", required: true}
	if deps.DB != nil {
		db.check = deps.DB.Ping
	}
	broker := probe{name: "nats"}
	if deps.NATS != nil {
		broker.check = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	cache := probe{name: "cache"}
	if deps.Cache != nil {
		cache.check = deps.Cache.Ping
	}
	return []probe{db, broker, cache}
}

// HealthHandler reports liveness only.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler fails only when the database is unusable. Without the broker
// or the cache the map still serves uncached reads.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			var state string
			switch {
			case p.check == nil:
				state = "not configured"
			case p.check(ctx) != nil:
				state = "unreachable"
			default:
				state = "ok"
			}
			checks[p.name] = state
			if p.required && state != "ok" {
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
