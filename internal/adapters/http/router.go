package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	apiVersion     = "1.0.0"

	// Panning emits region changes in bursts.
	rateLimitPerMinute = 300
)

// SetupRoutes installs the middleware stack and every REST, GraphQL and
// WebSocket route.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	useMiddleware(app)

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	registerV1(app.Group("/v1"), deps)
	app.Post("/graphql", GraphQLHandler(deps))
	SetupDocs(app)
	registerWebSocket(app, deps)
}

func useMiddleware(app *fiber.App) {
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(TracingMiddleware())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())
	app.Use(limiter.New(limiter.Config{
		Max:          rateLimitPerMinute,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, codeRateLimited, "too many requests, please try again later")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	})
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
}

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}

func registerV1(v1 fiber.Router, deps *Dependencies) {
	v1.Get("/clinics", withTimeout(ListClinicsHandler(deps)))
	v1.Get("/clinics/nearby", withTimeout(NearbyClinicsHandler(deps)))
	v1.Get("/clinics/:id", withTimeout(GetClinicHandler(deps)))

	v1.Get("/map/budget", BudgetHandler(deps))
	v1.Get("/map/initial-region", withTimeout(InitialRegionHandler(deps)))

	labels := withTimeout(LabelsHandler(deps))
	v1.Post("/map/labels", labels)
	v1.Post("/map/labels.geojson", withTimeout(LabelsGeoJSONHandler(deps)))
	// First mobile release still posts here.
	v1.Post("/labels", Deprecated(DeprecatedRoute{
		SunsetDate:  deps.LabelsSunset,
		Alternative: "/v1/map/labels",
	}), labels)

	v1.Post("/directory/sync/:id", withTimeout(SyncClinicHandler(deps)))
}

func registerWebSocket(app *fiber.App, deps *Dependencies) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/map", websocket.New(MapWebSocketHandler(deps.Map, deps.NATS)))
}
