package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assessly/assessly-api/internal/config"
	"github.com/assessly/assessly-api/internal/handler"
	"github.com/assessly/assessly-api/internal/middleware"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ModuleHandler     *handler.ModuleHandler
	ContentHandler    *handler.ContentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradeHandler      *handler.GradeHandler
	ArtefactHandler   *handler.ArtefactHandler
	ActivityHandler   *handler.ActivityHandler
	SessionMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterPublic(api.Group("/auth"))
	}

	// Use the provided session middleware, or a no-op if nil
	sessionMiddleware := deps.SessionMiddleware
	if sessionMiddleware == nil {
		sessionMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	protected := api.Group("", sessionMiddleware)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProtected(protected.Group("/auth"))
	}

	// Module lifecycle, membership and content endpoints are shared across
	// roles; fine-grained authorization happens in the service layer where
	// module visibility rules live.
	if deps.ModuleHandler != nil {
		deps.ModuleHandler.Register(protected.Group("/modules"))
	}
	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(protected)
	}
	if deps.ArtefactHandler != nil {
		deps.ArtefactHandler.Register(protected)
	}

	if deps.SubmissionHandler != nil {
		student := protected.Group("", middleware.RequireRole(string(models.RoleStudent)))
		deps.SubmissionHandler.RegisterStudent(student)

		staff := protected.Group("", middleware.RequireRole(string(models.RoleInstructor), string(models.RoleAdmin)))
		deps.SubmissionHandler.RegisterStaff(staff)

		if deps.GradeHandler != nil {
			deps.GradeHandler.Register(staff)
		}
	}

	if deps.ActivityHandler != nil {
		admin := protected.Group("", middleware.RequireRole(string(models.RoleAdmin)))
		deps.ActivityHandler.Register(admin)
	}
}
