package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/voltroute/voltroute/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Deprecated endpoints announce their sunset date
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/chargers/search",
			SunsetDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/chargers/nearby",
		},
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout for map and geocode endpoints
	v1 := app.Group("/v1")
	v1.Get("/chargers/nearby", timeout.NewWithContext(NearbyChargersHandler(deps), 15*time.Second))
	v1.Get("/chargers/clusters", timeout.NewWithContext(ChargerClustersHandler(deps), 15*time.Second))
	v1.Get("/geocode/suggest", timeout.NewWithContext(GeocodeSuggestHandler(deps), 15*time.Second))
	v1.Get("/geocode/reverse", timeout.NewWithContext(ReverseGeocodeHandler(deps), 15*time.Second))
	v1.Get("/geocode/places/:id", timeout.NewWithContext(PlaceDetailsHandler(deps), 15*time.Second))

	// Legacy alias for the map screen, kept until clients migrate
	v1.Get("/chargers/search", timeout.NewWithContext(NearbyChargersHandler(deps), 15*time.Second))

	// Route planning serializes provider searches, so it gets a much longer
	// budget; the planner enforces its own wall-clock timeout internally.
	v1.Post("/routes/plan", timeout.NewWithContext(PlanRouteHandler(deps), 150*time.Second))

	// Stored plans
	v1.Get("/plans", timeout.NewWithContext(ListPlansHandler(deps), 15*time.Second))
	v1.Get("/plans/stats", timeout.NewWithContext(PlanStatsHandler(deps), 15*time.Second))
	v1.Get("/plans/:id", timeout.NewWithContext(GetPlanHandler(deps), 15*time.Second))
	v1.Delete("/plans/:id", timeout.NewWithContext(DeletePlanHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			// No broker connection, so nothing to stream.
			return fiber.ErrServiceUnavailable
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
