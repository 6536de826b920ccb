package admin

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AdminService) SetupRoutes(app *fiber.App) {
	group := app.Group("/api/admin")
	group.Use(middleware.AuthMiddleware(s.jwtService))
	group.Use(middleware.AdminMiddleware())

	group.Get("/items", s.GetModerationQueue)
	group.Put("/items/:id/moderate", s.ModerateItem)
	group.Delete("/items/:id", s.DeleteItem)
	group.Get("/users", s.GetUsers)
	group.Put("/users/:id/toggle-admin", s.ToggleAdmin)
	group.Get("/stats", s.GetPlatformStats)
}
