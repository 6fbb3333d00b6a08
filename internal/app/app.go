package app

import (
	"errors"

	"labelmaker/internal/handlers"
	u "labelmaker/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

// SetupApp creates and configures a new Fiber app instance
func SetupApp(cfg u.Config, svc *handlers.LabelService) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitBytes,
		ErrorHandler:          ErrorHandler,
	})

	RegisterMiddleware(app)
	RegisterRoutes(app, cfg, svc)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// ErrorHandler is the single place where uncaught errors become responses.
// HTTP-layer errors keep their status and message; everything else is a
// generic 500 so internal causes never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := handlers.MsgGeneric

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		u.Error("Request failed", "path", c.Path(), "status", code, "error", err)
	} else {
		u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, svc *handlers.LabelService) {
	api := app.Group("/api", corsMiddleware(cfg.CORS))

	api.Post("/generate_pdf", svc.HandleGeneratePDF)
	api.Get("/sheets", svc.HandleListSheets)
	api.Get("/chrome/stats", svc.HandleChromeStats)

	app.Get("/ops/monitor", monitor.New())
}
