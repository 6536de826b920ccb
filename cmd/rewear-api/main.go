package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewear-app/rewear-api/internal/cache"
	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/services/admin"
	"github.com/rewear-app/rewear-api/internal/services/auth"
	"github.com/rewear-app/rewear-api/internal/services/cloudinary"
	"github.com/rewear-app/rewear-api/internal/services/item"
	"github.com/rewear-app/rewear-api/internal/services/swaps"
	"github.com/rewear-app/rewear-api/internal/services/user"
	"github.com/rewear-app/rewear-api/internal/swap"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Подключаем кеш. Без Redis сервис работает напрямую с базой
	if err := cache.Init(cfg.RedisURL); err != nil {
		log.Printf("⚠️ Ошибка подключения к Redis, кеш отключен: %v", err)
	}
	defer cache.Close()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "ReWear API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Ядро жизненного цикла обменов поверх pgx
	lifecycle := swap.NewService(db.NewSwapStore(db.Pool))

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)
	itemService := item.NewItemService(cfg, cloudinaryService)
	swapService := swaps.NewSwapService(cfg, lifecycle)
	userService := user.NewUserService(cfg)
	adminService := admin.NewAdminService(cfg, cloudinaryService)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	swapService.SetupRoutes(app)
	userService.SetupRoutes(app)
	adminService.SetupRoutes(app)

	// Метрики Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Запускаем сервер
	log.Printf("✅ ReWear API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
