package http

import (
	"context"
	"time"

	"mailassist_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
)

// BreakerState reports the model circuit breaker state.
type BreakerState interface {
	State() string
}

type HealthHandler struct {
	redis   *redis.Client
	breaker BreakerState
	metrics *metrics.Registry
	version string
}

func NewHealthHandler(redisClient *redis.Client, breaker BreakerState, reg *metrics.Registry, version string) *HealthHandler {
	return &HealthHandler{
		redis:   redisClient,
		breaker: breaker,
		metrics: reg,
		version: version,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	app.Get("/api/health", h.Health)
	app.Get("/api/metrics", h.Metrics)
	app.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.breaker != nil {
		body["model_breaker"] = h.breaker.State()
	}
	return c.JSON(body)
}

// Ready pings Redis when configured. An open model breaker is reported but
// does not fail readiness: smart replies still fall back to templates.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			ready = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.breaker != nil {
		checks["model_breaker"] = h.breaker.State()
	}

	status, code := "ready", fiber.StatusOK
	if !ready {
		status, code = "not ready", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
