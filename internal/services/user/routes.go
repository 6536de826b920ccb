package user

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *UserService) SetupRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware(s.jwtService)

	app.Get("/api/users", s.SearchUsers)
	app.Get("/api/users/stats", s.GetStats, auth)
	app.Get("/api/users/:id", s.GetProfile)
}
