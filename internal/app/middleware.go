package app

import (
	"strings"

	u "labelmaker/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"
)

var exposedHeaders = []string{
	fiber.HeaderContentDisposition,
	fiber.HeaderXRequestID,
}

// corsMiddleware allows the configured origins only. Without origins no CORS
// headers are sent and browsers fall back to same-origin.
func corsMiddleware(cfg u.CORSConfig) fiber.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
		AllowHeaders:  "Origin, Content-Type, Accept",
		ExposeHeaders: strings.Join(exposedHeaders, ","),
	})
}

// requestLogger writes one line per inbound request before it is handled.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		u.Info("Request received", "method", c.Method(), "path", c.Path(), "remote_addr", c.IP(), "request_id", requestID)
		return c.Next()
	}
}

// RegisterMiddleware attaches global middleware to the app
func RegisterMiddleware(app *fiber.App) {
	// Panics reach ErrorHandler as errors.
	app.Use(fiberrecover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(requestLogger())

	app.Use(healthcheck.New())
}
