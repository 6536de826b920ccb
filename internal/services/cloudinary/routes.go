package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	group := app.Group("/api/upload")
	group.Use(middleware.AuthMiddleware(s.jwtService))

	group.Get("/params", s.GenerateUploadParams)
}
