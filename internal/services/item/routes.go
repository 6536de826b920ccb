package item

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rewear-app/rewear-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *ItemService) SetupRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware(s.jwtService)

	// Публичный каталог
	app.Get("/api/items", s.GetItems)
	app.Get("/api/items/featured", s.GetFeaturedItems)
	app.Get("/api/items/user/:userId", s.GetUserItems)

	// Защищенные маршруты. /my регистрируется до /:id,
	// иначе "my" распарсится как ID.
	app.Get("/api/items/my", s.GetMyItems, auth)
	app.Get("/api/items/:id", s.GetItem)

	app.Post("/api/items", s.CreateItem, auth)
	app.Put("/api/items/:id", s.UpdateItem, auth)
	app.Delete("/api/items/:id", s.DeleteItem, auth)
	app.Post("/api/items/:id/like", s.LikeItem, auth)
}
