package swaps

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *SwapService) SetupRoutes(app *fiber.App) {
	group := app.Group("/api/swaps")
	group.Use(middleware.AuthMiddleware(s.jwtService))

	group.Post("/", s.CreateSwap)
	group.Get("/my", s.GetMySwaps)
	group.Get("/:id", s.GetSwap)
	group.Put("/:id/respond", s.RespondToSwap)
	group.Put("/:id/complete", s.CompleteSwap)
	group.Put("/:id/cancel", s.CancelSwap)
	group.Post("/:id/rate", s.RateSwap)
}
