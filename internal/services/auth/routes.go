package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/register", s.Register)
	app.Post("/api/auth/login", s.Login)

	// Защищенные маршруты
	protected := app.Group("/api/auth")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/me", s.Me)
	protected.Put("/profile", s.UpdateProfile)
}
