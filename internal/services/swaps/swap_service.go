package swaps

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/metrics"
	"github.com/rewear-app/rewear-api/internal/models"
	"github.com/rewear-app/rewear-api/internal/swap"
	"github.com/rewear-app/rewear-api/internal/utils"
)

// SwapService представляет сервис для работы с обменами
type SwapService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	lifecycle  *swap.Service
}

// NewSwapService создает новый экземпляр SwapService
func NewSwapService(cfg *config.Config, lifecycle *swap.Service) *SwapService {
	return &SwapService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		lifecycle:  lifecycle,
	}
}

// errResponse преобразует доменную ошибку в HTTP-ответ
func errResponse(c fiber.Ctx, err error) error {
	code := apperr.StatusCode(err)
	if code == fiber.StatusInternalServerError {
		log.Printf("Внутренняя ошибка обмена: %v", err)
		return c.Status(code).JSON(fiber.Map{"error": "Server error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// CreateSwap создает новое предложение обмена
func (s *SwapService) CreateSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	var requestData struct {
		RecipientItemID string `json:"recipient_item_id"`
		InitiatorItemID string `json:"initiator_item_id"`
		SwapType        string `json:"swap_type"`
		Message         string `json:"message"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	recipientItemID, err := uuid.Parse(requestData.RecipientItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recipient item ID"})
	}

	params := swap.CreateParams{
		RecipientItemID: recipientItemID,
		SwapType:        models.SwapType(requestData.SwapType),
		Message:         requestData.Message,
	}

	if requestData.InitiatorItemID != "" {
		initiatorItemID, err := uuid.Parse(requestData.InitiatorItemID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid initiator item ID"})
		}
		params.InitiatorItemID = &initiatorItemID
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Create(ctx, userID, params)
	if err != nil {
		return errResponse(c, err)
	}

	metrics.SwapsCreated.WithLabelValues(string(sw.SwapType)).Inc()
	s.attachDetails(ctx, sw)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Swap request created successfully",
		"swap":    sw,
	})
}

// GetMySwaps возвращает список обменов пользователя
func (s *SwapService) GetMySwaps(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapType := c.Query("type", "all") // all, sent, received
	status := c.Query("status", "")

	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
		SELECT ` + swapSelectColumns + `
		FROM swaps
		WHERE `
	var args []interface{}

	switch swapType {
	case "sent":
		query += `initiator_id = $1`
		args = append(args, userID)
	case "received":
		query += `recipient_id = $1`
		args = append(args, userID)
	default:
		query += `(initiator_id = $1 OR recipient_id = $1)`
		args = append(args, userID)
	}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса обменов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load swaps"})
	}
	defer rows.Close()

	swaps := []*models.Swap{}
	for rows.Next() {
		sw, err := scanSwapRow(rows)
		if err != nil {
			log.Printf("Ошибка сканирования строки обмена: %v", err)
			continue
		}
		s.attachDetails(ctx, sw)
		swaps = append(swaps, sw)
	}

	return c.JSON(fiber.Map{
		"swaps": swaps,
		"count": len(swaps),
	})
}

// GetSwap возвращает обмен по ID, доступен только участникам
func (s *SwapService) GetSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Get(ctx, swapID, userID)
	if err != nil {
		return errResponse(c, err)
	}

	s.attachDetails(ctx, sw)
	return c.JSON(fiber.Map{"swap": sw})
}

// RespondToSwap обрабатывает ответ получателя (принятие/отклонение)
func (s *SwapService) RespondToSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap ID"})
	}

	var requestData struct {
		Response string `json:"response"` // accepted, rejected
		Message  string `json:"message"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Respond(ctx, swapID, userID, models.SwapStatus(requestData.Response), requestData.Message)
	if err != nil {
		return errResponse(c, err)
	}

	metrics.SwapTransitions.WithLabelValues(string(sw.Status)).Inc()
	if sw.Status == models.SwapAccepted && sw.SwapType == models.SwapTypePoints {
		metrics.PointsTransferred.Add(float64(sw.PointsUsed))
	}

	s.attachDetails(ctx, sw)
	return c.JSON(fiber.Map{
		"message": "Swap " + string(sw.Status) + " successfully",
		"swap":    sw,
	})
}

// CompleteSwap отмечает принятый обмен завершённым
func (s *SwapService) CompleteSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Complete(ctx, swapID, userID)
	if err != nil {
		return errResponse(c, err)
	}

	metrics.SwapTransitions.WithLabelValues(string(models.SwapCompleted)).Inc()
	s.attachDetails(ctx, sw)
	return c.JSON(fiber.Map{
		"message": "Swap completed successfully",
		"swap":    sw,
	})
}

// CancelSwap отменяет ожидающий обмен
func (s *SwapService) CancelSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Cancel(ctx, swapID, userID)
	if err != nil {
		return errResponse(c, err)
	}

	metrics.SwapTransitions.WithLabelValues(string(models.SwapCancelled)).Inc()
	s.attachDetails(ctx, sw)
	return c.JSON(fiber.Map{
		"message": "Swap cancelled successfully",
		"swap":    sw,
	})
}

// RateSwap записывает оценку завершённого обмена
func (s *SwapService) RateSwap(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid swap ID"})
	}

	var requestData struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	sw, err := s.lifecycle.Rate(ctx, swapID, userID, requestData.Rating, requestData.Comment)
	if err != nil {
		return errResponse(c, err)
	}

	metrics.SwapRatings.Inc()
	s.attachDetails(ctx, sw)
	return c.JSON(fiber.Map{
		"message": "Rating submitted successfully",
		"swap":    sw,
	})
}

// attachDetails подгружает информацию об участниках и вещах обмена
func (s *SwapService) attachDetails(ctx context.Context, sw *models.Swap) {
	sw.Initiator = getUserInfo(ctx, sw.InitiatorID)
	sw.Recipient = getUserInfo(ctx, sw.RecipientID)
	sw.RecipientItem = getItemInfo(ctx, sw.RecipientItemID)
	if sw.InitiatorItemID != nil {
		sw.InitiatorItem = getItemInfo(ctx, *sw.InitiatorItemID)
	}
}

// getItemInfo получает краткую информацию о вещи
func getItemInfo(ctx context.Context, itemID uuid.UUID) *models.Item {
	var item models.Item
	err := db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, images, points_value, status
		FROM items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.OwnerID, &item.Title, &item.Images, &item.PointsValue, &item.Status)
	if err != nil {
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return nil
	}
	return &item
}

// getUserInfo получает публичную информацию о пользователе
func getUserInfo(ctx context.Context, userID uuid.UUID) *models.PublicUser {
	var user models.PublicUser
	err := db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, rating
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Rating)
	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}
	return &user
}
