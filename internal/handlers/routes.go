package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health and root endpoints.
const Version = "1.0.0"

// SetupRoutes registers every HTTP endpoint on app.
func SetupRoutes(app *fiber.App, upload *UploadHandler, resume *ResumeHandler, health *HealthHandler) {
	app.Get("/health", health.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/upload", upload.HandleUpload)
	api.Get("/resume/:document_id", resume.HandleGetResume)
	api.Get("/resume/:document_id/similar", resume.HandleGetSimilar)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Parser API",
			"version": Version,
			"endpoints": []string{
				"POST /api/upload",
				"GET /api/resume/:document_id",
				"GET /api/resume/:document_id/similar",
				"GET /health",
				"GET /metrics",
			},
		})
	})
}
