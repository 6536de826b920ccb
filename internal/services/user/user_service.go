package user

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/models"
	"github.com/rewear-app/rewear-api/internal/utils"
)

// UserService представляет сервис для работы с профилями пользователей
type UserService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewUserService создает новый экземпляр UserService
func NewUserService(cfg *config.Config) *UserService {
	return &UserService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// publicProfile — расширенная публичная проекция профиля
type publicProfile struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Location       string    `json:"location,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Rating         float64   `json:"rating"`
	TotalRatings   int       `json:"total_ratings"`
	MemberSince    string    `json:"member_since"`
}

// GetProfile возвращает публичный профиль пользователя с его вещами
func (s *UserService) GetProfile(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var profile publicProfile
	err = db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, profile_picture, location, bio,
			rating, total_ratings, to_char(created_at, 'YYYY-MM-DD')
		FROM users
		WHERE id = $1
	`, userID).Scan(&profile.ID, &profile.FirstName, &profile.LastName, &profile.ProfilePicture,
		&profile.Location, &profile.Bio, &profile.Rating, &profile.TotalRatings, &profile.MemberSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("Ошибка получения профиля %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, title, images, points_value, status
		FROM items
		WHERE owner_id = $1 AND approval_status = 'approved' AND status = 'available'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("Ошибка запроса вещей профиля %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Images, &item.PointsValue, &item.Status); err != nil {
			continue
		}
		item.OwnerID = userID
		items = append(items, &item)
	}

	return c.JSON(fiber.Map{
		"user":  profile,
		"items": items,
	})
}

// GetStats возвращает статистику текущего пользователя
func (s *UserService) GetStats(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	ctx, cancel := db.GetContext()
	defer cancel()

	var points int
	var rating float64
	var totalRatings int
	err := db.Pool.QueryRow(ctx, `
		SELECT points, rating, total_ratings FROM users WHERE id = $1
	`, userID).Scan(&points, &rating, &totalRatings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}

	// Распределение вещей по статусам
	itemStats := fiber.Map{"available": 0, "pending": 0, "swapped": 0, "inactive": 0}
	rows, err := db.Pool.Query(ctx, `
		SELECT status, COUNT(*) FROM items WHERE owner_id = $1 GROUP BY status
	`, userID)
	if err == nil {
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err == nil {
				itemStats[status] = count
			}
		}
		rows.Close()
	}

	var totalSwaps, completedSwaps int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed')
		FROM swaps
		WHERE initiator_id = $1 OR recipient_id = $1
	`, userID).Scan(&totalSwaps, &completedSwaps)
	if err != nil {
		log.Printf("Ошибка подсчета обменов %s: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"points":          points,
		"rating":          rating,
		"total_ratings":   totalRatings,
		"items":           itemStats,
		"total_swaps":     totalSwaps,
		"completed_swaps": completedSwaps,
	})
}

// SearchUsers ищет пользователей по имени
func (s *UserService) SearchUsers(c fiber.Ctx) error {
	search := c.Query("search", "")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
		SELECT id, first_name, last_name, rating
		FROM users`
	var args []interface{}
	if search != "" {
		query += ` WHERE first_name ILIKE $1 OR last_name ILIKE $1`
		args = append(args, "%"+search+"%")
		query += ` ORDER BY rating DESC LIMIT $2`
	} else {
		query += ` ORDER BY rating DESC LIMIT $1`
	}
	args = append(args, limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка поиска пользователей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search users"})
	}
	defer rows.Close()

	users := []*models.PublicUser{}
	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Rating); err != nil {
			continue
		}
		users = append(users, &u)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"count": len(users),
	})
}
