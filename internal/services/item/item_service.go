package item

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rewear-app/rewear-api/internal/cache"
	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/models"
	"github.com/rewear-app/rewear-api/internal/services/cloudinary"
	"github.com/rewear-app/rewear-api/internal/utils"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
	maxImages       = 5

	featuredCacheKey = "items:featured"
	featuredCacheTTL = 5 * time.Minute
)

// ItemService представляет сервис для работы с вещами
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	uploads    *cloudinary.CloudinaryService
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(cfg *config.Config, uploads *cloudinary.CloudinaryService) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		uploads:    uploads,
	}
}

// Разрешенные поля сортировки каталога
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"points_value": "points_value",
	"views":        "views",
}

// GetItems возвращает каталог одобренных вещей с фильтрами и пагинацией
func (s *ItemService) GetItems(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	where := []string{`approval_status = 'approved'`, `status = 'available'`}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if category := c.Query("category"); category != "" {
		where = append(where, "category = "+arg(category))
	}
	if size := c.Query("size"); size != "" {
		where = append(where, "size = "+arg(size))
	}
	if condition := c.Query("condition"); condition != "" {
		where = append(where, "condition = "+arg(condition))
	}
	if search := c.Query("search"); search != "" {
		p := arg("%" + search + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if minPoints, err := strconv.Atoi(c.Query("minPoints")); err == nil && minPoints > 0 {
		where = append(where, "points_value >= "+arg(minPoints))
	}
	if maxPoints, err := strconv.Atoi(c.Query("maxPoints")); err == nil && maxPoints > 0 {
		where = append(where, "points_value <= "+arg(maxPoints))
	}

	sortBy, ok := sortColumns[c.Query("sort", "created_at")]
	if !ok {
		sortBy = "created_at"
	}
	order := "DESC"
	if c.Query("order") == "asc" {
		order = "ASC"
	}

	whereClause := strings.Join(where, " AND ")

	ctx, cancel := db.GetContext()
	defer cancel()

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE `+whereClause, args...).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load items"})
	}

	query := `SELECT ` + itemSelectColumns + ` FROM items WHERE ` + whereClause +
		` ORDER BY ` + sortBy + ` ` + order +
		` LIMIT ` + arg(limit) + ` OFFSET ` + arg((page-1)*limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load items"})
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			log.Printf("Ошибка сканирования вещи: %v", err)
			continue
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + limit - 1) / limit,
		},
	})
}

// GetFeaturedItems возвращает витрину самых просматриваемых вещей.
// Результат кешируется в Redis.
func (s *ItemService) GetFeaturedItems(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	var items []*models.Item
	if cache.GetJSON(ctx, featuredCacheKey, &items) {
		return c.JSON(fiber.Map{"items": items})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+itemSelectColumns+`
		FROM items
		WHERE approval_status = 'approved' AND status = 'available'
		ORDER BY views DESC
		LIMIT 8
	`)
	if err != nil {
		log.Printf("Ошибка запроса витрины: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load items"})
	}
	defer rows.Close()

	items = []*models.Item{}
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	cache.SetJSON(ctx, featuredCacheKey, items, featuredCacheTTL)
	return c.JSON(fiber.Map{"items": items})
}

// GetItem возвращает вещь по ID и увеличивает счетчик просмотров
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if _, err := db.Pool.Exec(ctx, `UPDATE items SET views = views + 1 WHERE id = $1`, itemID); err != nil {
		log.Printf("Ошибка обновления просмотров %s: %v", itemID, err)
	}

	item, err := scanItemRow(db.Pool.QueryRow(ctx,
		`SELECT `+itemSelectColumns+` FROM items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load item"})
	}

	var owner models.PublicUser
	err = db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, rating FROM users WHERE id = $1
	`, item.OwnerID).Scan(&owner.ID, &owner.FirstName, &owner.LastName, &owner.Rating)
	if err == nil {
		item.Owner = &owner
	}

	return c.JSON(fiber.Map{"item": item})
}

type itemPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Brand       string   `json:"brand"`
	Color       string   `json:"color"`
	Material    string   `json:"material"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	PointsValue int      `json:"points_value"`
}

// validate проверяет поля вещи. Возвращает текст первой ошибки.
func (p *itemPayload) validate() string {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	switch {
	case len(p.Title) < 3 || len(p.Title) > 100:
		return "Title must be between 3 and 100 characters"
	case p.Description == "" || len(p.Description) > 1000:
		return "Description is required and cannot exceed 1000 characters"
	case !models.ValidCategories[p.Category]:
		return "Invalid category"
	case p.Type == "":
		return "Type is required"
	case !models.ValidSizes[p.Size]:
		return "Invalid size"
	case !models.ValidConditions[p.Condition]:
		return "Invalid condition"
	case p.PointsValue < models.MinPointsValue || p.PointsValue > models.MaxPointsValue:
		return fmt.Sprintf("Points value must be between %d and %d", models.MinPointsValue, models.MaxPointsValue)
	case len(p.Images) == 0 || len(p.Images) > maxImages:
		return fmt.Sprintf("Item must have between 1 and %d images", maxImages)
	}
	return ""
}

// CreateItem создает новую вещь. Вещь попадает в каталог только после модерации.
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	var payload itemPayload
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := payload.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	itemID := uuid.New()
	now := time.Now()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO items (id, owner_id, title, description, category, type, size, condition,
			brand, color, material, tags, images, points_value, status, approval_status,
			rejection_reason, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			'available', 'pending', '', 0, $15, $15)
	`, itemID, userID, payload.Title, payload.Description, payload.Category, payload.Type,
		payload.Size, payload.Condition, payload.Brand, payload.Color, payload.Material,
		payload.Tags, payload.Images, payload.PointsValue, now)
	if err != nil {
		log.Printf("Ошибка создания вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create item"})
	}

	item, err := scanItemRow(db.Pool.QueryRow(ctx,
		`SELECT `+itemSelectColumns+` FROM items WHERE id = $1`, itemID))
	if err != nil {
		log.Printf("Ошибка чтения созданной вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create item"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item submitted for moderation",
		"item":    item,
	})
}

// UpdateItem обновляет вещь владельца. Изменение контента снова отправляет
// вещь на модерацию.
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var payload itemPayload
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := payload.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	var status models.ItemStatus
	err = db.Pool.QueryRow(ctx, `SELECT owner_id, status FROM items WHERE id = $1`, itemID).
		Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update item"})
	}
	if ownerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only edit your own items"})
	}
	if status == models.ItemPending || status == models.ItemSwapped {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item is involved in a swap and cannot be edited"})
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE items SET title = $2, description = $3, category = $4, type = $5, size = $6,
			condition = $7, brand = $8, color = $9, material = $10, tags = $11, images = $12,
			points_value = $13, approval_status = 'pending', rejection_reason = '', updated_at = NOW()
		WHERE id = $1
	`, itemID, payload.Title, payload.Description, payload.Category, payload.Type, payload.Size,
		payload.Condition, payload.Brand, payload.Color, payload.Material, payload.Tags,
		payload.Images, payload.PointsValue)
	if err != nil {
		log.Printf("Ошибка обновления вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update item"})
	}

	item, err := scanItemRow(db.Pool.QueryRow(ctx,
		`SELECT `+itemSelectColumns+` FROM items WHERE id = $1`, itemID))
	if err != nil {
		log.Printf("Ошибка чтения обновленной вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update item"})
	}

	cache.Invalidate(ctx, featuredCacheKey)
	return c.JSON(fiber.Map{
		"message": "Item updated and submitted for moderation",
		"item":    item,
	})
}

// DeleteItem удаляет вещь владельца. Вещь с активными обменами удалить нельзя.
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	var images []string
	err = db.Pool.QueryRow(ctx, `SELECT owner_id, images FROM items WHERE id = $1`, itemID).
		Scan(&ownerID, &images)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
	}
	if ownerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own items"})
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

	// Чистим изображения в фоне, ошибки не влияют на ответ
	go s.uploads.DestroyAssets(context.Background(), images)

	cache.Invalidate(ctx, featuredCacheKey)
	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

// LikeItem переключает лайк пользователя на вещи
func (s *ItemService) LikeItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil || !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	ct, err := db.Pool.Exec(ctx, `
		INSERT INTO item_likes (item_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (item_id, user_id) DO NOTHING
	`, itemID, userID)
	if err != nil {
		log.Printf("Ошибка лайка вещи %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to like item"})
	}

	liked := ct.RowsAffected() > 0
	if !liked {
		// Лайк уже был — снимаем
		if _, err := db.Pool.Exec(ctx, `
			DELETE FROM item_likes WHERE item_id = $1 AND user_id = $2
		`, itemID, userID); err != nil {
			log.Printf("Ошибка снятия лайка %s: %v", itemID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unlike item"})
		}
	}

	var likesCount int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM item_likes WHERE item_id = $1`, itemID).Scan(&likesCount); err != nil {
		likesCount = 0
	}

	return c.JSON(fiber.Map{
		"liked":       liked,
		"likes_count": likesCount,
	})
}

// GetUserItems возвращает опубликованные вещи пользователя
func (s *ItemService) GetUserItems(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT `+itemSelectColumns+`
		FROM items
		WHERE owner_id = $1 AND approval_status = 'approved' AND status != 'inactive'
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		log.Printf("Ошибка запроса вещей пользователя %s: %v", ownerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load items"})
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetMyItems возвращает все вещи текущего пользователя, включая
// находящиеся на модерации и отклоненные
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT `+itemSelectColumns+`
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("Ошибка запроса своих вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load items"})
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}
