// Package api exposes the ingestion pipeline over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// SessionHeader carries the session every /api request is scoped to.
const SessionHeader = "X-Session-ID"

// Options tunes the HTTP server.
type Options struct {
	BodyLimit    int  // bytes; 0 keeps fiber's default
	AccessLog    bool // fiber request logging
	AllowOrigins string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRouter builds the fiber app with all routes registered.
func NewRouter(h *Handler, logger *zap.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cashcheck",
		BodyLimit:             opts.BodyLimit,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	origins := opts.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + SessionHeader,
	}))
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", SessionMiddleware(logger))
	api.Post("/import", h.Import)
	api.Post("/detect", h.Detect)
	api.Post("/transfers/detect", h.DetectTransfers)
	api.Post("/rules/reapply", h.Reapply)

	return app
}

// SessionMiddleware rejects requests without a session header and stores
// the session ID in the request locals.
func SessionMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Get(SessionHeader)
		if sessionID == "" {
			logger.Warn("missing session header", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "session required",
			})
		}
		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("sessionID").(string)
	return id
}
