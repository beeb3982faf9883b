package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campuslife/activity-api/internal/config"
	"github.com/campuslife/activity-api/internal/handler"
	"github.com/campuslife/activity-api/internal/middleware"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ActivityHandler     *handler.ActivityHandler
	ApplicationHandler  *handler.ApplicationHandler
	NotificationHandler *handler.NotificationHandler
	AuditHandler        *handler.AuditHandler
	Verify              middleware.VerifyFunc
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	authenticated := middleware.Authenticated(deps.Verify)

	if deps.AuthHandler != nil {
		authGroup := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(authGroup)

		protected := authGroup.Group("", authenticated)
		deps.AuthHandler.RegisterProtected(protected)
	}

	if deps.ActivityHandler != nil {
		activityGroup := api.Group("/activities", authenticated)
		deps.ActivityHandler.Register(activityGroup)
	}

	if deps.ApplicationHandler != nil {
		applicationGroup := api.Group("/applications", authenticated)
		deps.ApplicationHandler.Register(applicationGroup)
	}

	if deps.NotificationHandler != nil {
		notificationGroup := api.Group("/notifications", authenticated)
		deps.NotificationHandler.Register(notificationGroup)
	}

	if deps.AuditHandler != nil {
		auditGroup := api.Group("/audit", authenticated, middleware.RequireRole(models.RoleAdmin))
		deps.AuditHandler.Register(auditGroup)
	}
}
