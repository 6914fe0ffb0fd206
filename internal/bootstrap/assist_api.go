package bootstrap

import (
	"strings"
	"time"

	"mailassist_server/adapter/in/http"
	"mailassist_server/config"
	"mailassist_server/infra/middleware"
	"mailassist_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Version is set at build time.
var Version = "dev"

// NewAPI builds the fiber app with all routes. The cleanup func releases
// stores and connections.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	app := NewApp(cfg, deps, limiter)

	return app, func() {
		limiter.Close()
		cleanup()
	}, nil
}

// NewApp assembles middleware and handlers around already-built dependencies.
func NewApp(cfg *config.Config, deps *Dependencies, limiter *middleware.RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json for request and response bodies
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:    2 * 1024 * 1024,
		ReadTimeout:  cfg.LLMTimeout() + 10*time.Second,
		WriteTimeout: cfg.LLMTimeout() + 10*time.Second,
		ServerHeader: "",
	})

	// order matters
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(deps.Metrics))
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		MaxAge:        86400,
	}))

	health := http.NewHealthHandler(deps.Redis, deps.Breaker, deps.Metrics, Version)
	health.Register(app)

	limited := app.Group("", limiter.Handler(), middleware.ValidateContentType())
	http.NewAssistHandler(
		deps.ReplyService,
		deps.SummaryService,
		deps.SearchService,
		deps.CorrectionService,
	).Register(limited)

	return app
}
