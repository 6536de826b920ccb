package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/models"
)

// Store — контракт хранилища для менеджера обменов.
// Интерфейс не зависит от pgx, чтобы ядро можно было тестировать
// на in-memory реализации.
type Store interface {
	// WithTx выполняет fn в одной транзакции. Переданный fn хранилищу
	// Store ограничен областью транзакции; ошибка из fn откатывает всё.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	// GetItemForUpdate читает вещь с блокировкой строки до конца транзакции
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error)
	SetItemStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	// AdjustPoints атомарно изменяет баланс; уход в минус возвращает
	// apperr.ErrInsufficientPoints
	AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error
	SetUserRating(ctx context.Context, id uuid.UUID, rating float64, totalRatings int) error

	CreateSwap(ctx context.Context, s *models.Swap) error
	GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	// GetSwapForUpdate блокирует строку обмена: конкурирующие переходы
	// по одному обмену сериализуются, проигравший видит уже изменённый статус
	GetSwapForUpdate(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	UpdateSwap(ctx context.Context, s *models.Swap) error
}
