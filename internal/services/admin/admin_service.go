package admin

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rewear-app/rewear-api/internal/cache"
	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/metrics"
	"github.com/rewear-app/rewear-api/internal/models"
	"github.com/rewear-app/rewear-api/internal/services/cloudinary"
	"github.com/rewear-app/rewear-api/internal/utils"
)

const maxRejectionReason = 500

// AdminService представляет сервис модерации и управления платформой
type AdminService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	uploads    *cloudinary.CloudinaryService
}

// NewAdminService создает новый экземпляр AdminService
func NewAdminService(cfg *config.Config, uploads *cloudinary.CloudinaryService) *AdminService {
	return &AdminService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		uploads:    uploads,
	}
}

// GetModerationQueue возвращает вещи по статусу модерации
func (s *AdminService) GetModerationQueue(c fiber.Ctx) error {
	approvalStatus := c.Query("status", "pending")
	switch models.ApprovalStatus(approvalStatus) {
	case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid approval status"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var total int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE approval_status = $1`, approvalStatus).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета очереди модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load moderation queue"})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT i.id, i.owner_id, i.title, i.description, i.category, i.size, i.condition,
			i.images, i.points_value, i.approval_status, i.rejection_reason, i.created_at,
			u.first_name, u.last_name
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE i.approval_status = $1
		ORDER BY i.created_at ASC
		LIMIT $2 OFFSET $3
	`, approvalStatus, limit, (page-1)*limit)
	if err != nil {
		log.Printf("Ошибка запроса очереди модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load moderation queue"})
	}
	defer rows.Close()

	items := []fiber.Map{}
	for rows.Next() {
		var item models.Item
		var firstName, lastName string
		err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
			&item.Size, &item.Condition, &item.Images, &item.PointsValue, &item.ApprovalStatus,
			&item.RejectionReason, &item.CreatedAt, &firstName, &lastName)
		if err != nil {
			continue
		}
		items = append(items, fiber.Map{
			"item":       item,
			"owner_name": firstName + " " + lastName,
		})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// ModerateItem принимает решение по вещи на модерации
func (s *AdminService) ModerateItem(c fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var payload struct {
		Decision        string `json:"decision"` // approved, rejected
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	decision := models.ApprovalStatus(payload.Decision)
	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Decision must be approved or rejected"})
	}

	reason := strings.TrimSpace(payload.RejectionReason)
	if decision == models.ApprovalRejected && reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rejection reason is required"})
	}
	if len(reason) > maxRejectionReason {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rejection reason cannot exceed 500 characters"})
	}
	if decision == models.ApprovalApproved {
		reason = ""
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Решение принимается только по ожидающим вещам
	ct, err := db.Pool.Exec(ctx, `
		UPDATE items SET approval_status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = $1 AND approval_status = 'pending'
	`, itemID, decision, reason)
	if err != nil {
		log.Printf("Ошибка модерации вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to moderate item"})
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err == nil && !exists {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item is not pending moderation"})
	}

	metrics.ItemsModerated.WithLabelValues(string(decision)).Inc()
	return c.JSON(fiber.Map{"message": "Item " + string(decision)})
}

// DeleteItem удаляет любую вещь. Вещь с активными обменами удалить нельзя.
func (s *AdminService) DeleteItem(c fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var images []string
	err = db.Pool.QueryRow(ctx, `SELECT images FROM items WHERE id = $1`, itemID).Scan(&images)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
	}

	var activeSwaps int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM swaps
		WHERE (recipient_item_id = $1 OR initiator_item_id = $1)
		  AND status IN ('pending', 'accepted')
	`, itemID).Scan(&activeSwaps)
	if err != nil {
		log.Printf("Ошибка проверки активных обменов %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
	}
	if activeSwaps > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item has active swaps and cannot be deleted"})
	}

	if _, err := db.Pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID); err != nil {
		log.Printf("Ошибка удаления вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
	}

	go s.uploads.DestroyAssets(context.Background(), images)
	cache.Invalidate(ctx, "items:featured")

	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

// GetUsers возвращает список пользователей платформы
func (s *AdminService) GetUsers(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета пользователей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, email, first_name, last_name, points, rating, total_ratings, is_admin, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		log.Printf("Ошибка запроса пользователей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Points,
			&u.Rating, &u.TotalRatings, &u.IsAdmin, &u.CreatedAt)
		if err != nil {
			continue
		}
		users = append(users, &u)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// ToggleAdmin выдает или забирает права администратора.
// Администратор не может снять права с самого себя.
func (s *AdminService) ToggleAdmin(c fiber.Ctx) error {
	adminID := c.Locals("userID").(uuid.UUID)

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if targetID == adminID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot change your own admin status"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var isAdmin bool
	err = db.Pool.QueryRow(ctx, `
		UPDATE users SET is_admin = NOT is_admin, updated_at = NOW()
		WHERE id = $1
		RETURNING is_admin
	`, targetID).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("Ошибка смены прав %s: %v", targetID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(fiber.Map{
		"message":  "Admin status updated",
		"is_admin": isAdmin,
	})
}

// GetPlatformStats возвращает сводную статистику платформы
func (s *AdminService) GetPlatformStats(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	var totalUsers, totalItems, pendingModeration int
	var totalSwaps, completedSwaps, pointsInCirculation int

	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(points), 0) FROM users`).
		Scan(&totalUsers, &pointsInCirculation); err != nil {
		log.Printf("Ошибка статистики пользователей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}
	if err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE approval_status = 'pending') FROM items
	`).Scan(&totalItems, &pendingModeration); err != nil {
		log.Printf("Ошибка статистики вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}
	if err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed') FROM swaps
	`).Scan(&totalSwaps, &completedSwaps); err != nil {
		log.Printf("Ошибка статистики обменов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}

	return c.JSON(fiber.Map{
		"total_users":           totalUsers,
		"total_items":           totalItems,
		"pending_moderation":    pendingModeration,
		"total_swaps":           totalSwaps,
		"completed_swaps":       completedSwaps,
		"points_in_circulation": pointsInCirculation,
	})
}
