package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/config"
	"github.com/rewear-app/rewear-api/internal/utils"
)

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	client     *cld.Cloudinary
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg *config.Config) *CloudinaryService {
	s := &CloudinaryService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}

	cc := cfg.CloudinaryConfig
	if cc.CloudName != "" && cc.APIKey != "" && cc.APISecret != "" {
		client, err := cld.NewFromParams(cc.CloudName, cc.APIKey, cc.APISecret)
		if err != nil {
			log.Printf("⚠️ Ошибка инициализации Cloudinary: %v", err)
		} else {
			s.client = client
		}
	}

	return s
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *CloudinaryService) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	// Создаем SHA-1 хеш
	h := sha1.New()
	h.Write([]byte(signatureString))

	// Возвращаем подпись в виде шестнадцатеричной строки
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams создаёт параметры для клиентской загрузки изображений
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	// Генерируем ID для вещи, если не передан
	itemID := c.Query("item_id")
	if itemID == "" {
		itemID = uuid.New().String()
	}

	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := map[string]string{
		"timestamp": timestamp,
	}

	// Генерируем подпись
	signature := s.GenerateSignature(params)

	// Возвращаем параметры
	return c.JSON(fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"item_id":    itemID,
	})
}

// DestroyAssets удаляет изображения по их URL. Ошибки удаления
// только логируются: осиротевшие файлы не ломают основной сценарий.
func (s *CloudinaryService) DestroyAssets(ctx context.Context, urls []string) {
	if s.client == nil {
		return
	}

	for _, u := range urls {
		publicID := publicIDFromURL(u)
		if publicID == "" {
			continue
		}
		_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
		if err != nil {
			log.Printf("Ошибка удаления изображения %s: %v", publicID, err)
		}
	}
}

// publicIDFromURL извлекает public_id из URL Cloudinary.
// Пример: .../image/upload/v1700000000/rewear/abc123.jpg -> rewear/abc123
func publicIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(parsed.Path, "/upload/")
	if len(parts) < 2 {
		return ""
	}

	id := parts[1]
	// Отбрасываем префикс версии v<цифры>/
	if idx := strings.Index(id, "/"); idx > 1 && id[0] == 'v' && isDigits(id[1:idx]) {
		id = id[idx+1:]
	}

	return strings.TrimSuffix(id, path.Ext(id))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
