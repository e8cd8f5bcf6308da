package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/evalhub/evalhub-api/internal/config"
	"github.com/evalhub/evalhub-api/internal/handler"
	"github.com/evalhub/evalhub-api/internal/middleware"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler             *handler.AuthHandler
	AssessmentHandler       *handler.AssessmentHandler
	SubmissionHandler       *handler.SubmissionHandler
	CategoryHandler         *handler.CategoryHandler
	NoteHandler             *handler.NoteHandler
	NotificationHandler     *handler.NotificationHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	AdminAssessmentHandler  *handler.AdminAssessmentHandler
	AdminGradingHandler     *handler.AdminGradingHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := app.Group("/api/v1/auth")
		deps.AuthHandler.Register(auth)
	}

	if deps.AssessmentHandler != nil {
		assessments := app.Group("/api/v1/assessments", jwtMiddleware)
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.CategoryHandler != nil {
		categories := app.Group("/api/v1/categories", jwtMiddleware)
		deps.CategoryHandler.RegisterPublic(categories)
	}

	if deps.NoteHandler != nil {
		notes := app.Group("/api/v1/notes", jwtMiddleware)
		deps.NoteHandler.Register(notes)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.StudentDashboardHandler != nil {
		dashboard := app.Group("/api/v1/dashboard", jwtMiddleware)
		deps.StudentDashboardHandler.Register(dashboard)
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))

	if deps.AdminAssessmentHandler != nil {
		deps.AdminAssessmentHandler.Register(admin.Group("/assessments"))
	}

	if deps.AdminGradingHandler != nil {
		deps.AdminGradingHandler.Register(admin.Group("/submissions"))
	}

	if deps.CategoryHandler != nil {
		deps.CategoryHandler.RegisterAdmin(admin.Group("/categories"))
	}

	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
}
