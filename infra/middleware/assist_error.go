package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"
	"mailassist_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler is the centralized error handler for Fiber.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.WithContext(c.UserContext())

		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
		}

		appErr := apperr.AsAppError(err)
		status := appErr.HTTPStatus()

		l := log.WithField("error_code", appErr.Code).WithFields(appErr.Details).WithError(appErr.Err)
		switch {
		case !apperr.IsAppError(err):
			log.WithError(err).Error("unexpected error: %s", err.Error())
		case status >= 500:
			l.Error("internal error: %s", appErr.Message)
		default:
			l.Warn("client error: %s", appErr.Message)
		}

		return c.Status(status).JSON(ErrorResponse{Error: appErr.Message})
	}
}

// RequestID tags each request with an ID, echoed in X-Request-ID and carried
// on the user context for logging.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Locals("request_id", requestID)
		c.Set(fiber.HeaderXRequestID, requestID)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), requestID))
		return c.Next()
	}
}

// RequestLogger logs each request and feeds the latency metrics. reg may be nil.
func RequestLogger(reg *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// run the error handler now so the logged status is the final one
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		duration := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		reg.ObserveRequest(route, c.Method(), status, duration)

		log := logger.WithContext(c.UserContext()).WithFields(map[string]any{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
			"ip":          c.IP(),
		})

		switch {
		case status >= 500:
			log.Error("request failed: %s %s -> %d", c.Method(), c.Path(), status)
		case status >= 400:
			log.Warn("request error: %s %s -> %d", c.Method(), c.Path(), status)
		default:
			log.Info("request completed: %s %s -> %d", c.Method(), c.Path(), status)
		}

		return err
	}
}

// Recover turns a panic into a JSON 500.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(c.UserContext()).WithFields(map[string]any{
					"panic":  fmt.Sprintf("%v", r),
					"path":   c.Path(),
					"method": c.Method(),
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				appErr := apperr.InternalWithError(fmt.Errorf("panic: %v", r))
				err = c.Status(appErr.HTTPStatus()).JSON(ErrorResponse{Error: appErr.Message})
			}
		}()
		return c.Next()
	}
}
