package auth

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/db"
	"github.com/rewear-app/rewear-api/internal/utils"
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetJWTService возвращает JWT сервис для middleware
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// Register создает нового пользователя и возвращает JWT
func (s *AuthService) Register(c fiber.Ctx) error {
	var payload struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.FirstName = strings.TrimSpace(payload.FirstName)
	payload.LastName = strings.TrimSpace(payload.LastName)

	if payload.Email == "" || !strings.Contains(payload.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid email is required"})
	}
	if len(payload.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Password must be at least 6 characters"})
	}
	if payload.FirstName == "" || payload.LastName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "First and last name are required"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.CreateUser(ctx, payload.Email, string(hash), payload.FirstName, payload.LastName)
	if err != nil {
		if apperr.StatusCode(err) == fiber.StatusConflict {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
		}
		log.Printf("Ошибка создания пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		log.Printf("Ошибка генерации JWT: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login проверяет учетные данные и возвращает JWT
func (s *AuthService) Login(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(payload.Email)))
	if err != nil {
		// Не раскрываем, существует ли email
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		log.Printf("Ошибка генерации JWT: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me возвращает профиль текущего пользователя
func (s *AuthService) Me(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile обновляет редактируемые поля профиля
func (s *AuthService) UpdateProfile(c fiber.Ctx) error {
	userID := c.Locals("userID").(uuid.UUID)

	var payload struct {
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Location       string `json:"location"`
		Bio            string `json:"bio"`
		ProfilePicture string `json:"profile_picture"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	payload.FirstName = strings.TrimSpace(payload.FirstName)
	payload.LastName = strings.TrimSpace(payload.LastName)
	if payload.FirstName == "" || payload.LastName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "First and last name are required"})
	}
	if len(payload.Bio) > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bio cannot exceed 500 characters"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.UpdateUserProfile(ctx, userID, payload.FirstName, payload.LastName,
		payload.Location, payload.Bio, payload.ProfilePicture)
	if err != nil {
		log.Printf("Ошибка обновления профиля: %v", err)
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
