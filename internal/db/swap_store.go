package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
	"github.com/rewear-app/rewear-api/internal/swap"
)

// querier покрывает и пул, и открытую транзакцию
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SwapStore реализует swap.Store поверх pgx. Конкурирующие переходы
// по одному обмену сериализуются блокировкой строки (SELECT ... FOR UPDATE).
type SwapStore struct {
	q    querier
	pool *pgxpool.Pool // nil, когда store ограничен транзакцией
}

// NewSwapStore создает новый экземпляр SwapStore
func NewSwapStore(pool *pgxpool.Pool) *SwapStore {
	return &SwapStore{q: pool, pool: pool}
}

// WithTx выполняет fn в одной транзакции базы данных
func (s *SwapStore) WithTx(ctx context.Context, fn func(tx swap.Store) error) error {
	if s.pool == nil {
		// Уже внутри транзакции
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapDBErr(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&SwapStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapDBErr(err)
	}
	return nil
}

// wrapDBErr переводит инфраструктурные ошибки в доменные
func wrapDBErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("database timeout: %w", apperr.ErrTransient)
	default:
		return err
	}
}

const itemColumns = `id, owner_id, title, description, category, type, size, condition,
	brand, color, material, tags, images, points_value, status, approval_status,
	rejection_reason, views, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
		&item.Type, &item.Size, &item.Condition, &item.Brand, &item.Color,
		&item.Material, &item.Tags, &item.Images, &item.PointsValue, &item.Status,
		&item.ApprovalStatus, &item.RejectionReason, &item.Views,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return &item, nil
}

// GetItem возвращает вещь по ID
func (s *SwapStore) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return scanItem(s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
}

// GetItemForUpdate возвращает вещь с блокировкой строки
func (s *SwapStore) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return scanItem(s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id))
}

// SetItemStatus обновляет статус вещи
func (s *SwapStore) SetItemStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE items SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return wrapDBErr(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

const userColumns = `id, email, password_hash, first_name, last_name, profile_picture,
	location, bio, points, rating, total_ratings, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.ProfilePicture, &user.Location, &user.Bio, &user.Points, &user.Rating,
		&user.TotalRatings, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return &user, nil
}

// GetUser возвращает пользователя по ID
func (s *SwapStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserForUpdate возвращает пользователя с блокировкой строки
func (s *SwapStore) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// AdjustPoints атомарно изменяет баланс пользователя. Условие в WHERE
// не даёт балансу уйти в минус без отдельного чтения.
func (s *SwapStore) AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE users SET points = points + $2, updated_at = NOW()
		WHERE id = $1 AND points + $2 >= 0
	`, id, delta)
	if err != nil {
		return wrapDBErr(err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("balance would go negative: %w", apperr.ErrInsufficientPoints)
	}
	return nil
}

// SetUserRating записывает пересчитанный рейтинг пользователя
func (s *SwapStore) SetUserRating(ctx context.Context, id uuid.UUID, rating float64, totalRatings int) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE users SET rating = $2, total_ratings = $3, updated_at = NOW() WHERE id = $1
	`, id, rating, totalRatings)
	if err != nil {
		return wrapDBErr(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

const swapColumns = `id, initiator_id, recipient_id, initiator_item_id, recipient_item_id,
	swap_type, points_used, status, message, initiator_rating, initiator_comment,
	recipient_rating, recipient_comment, completed_at, created_at, updated_at`

func scanSwap(row pgx.Row) (*models.Swap, error) {
	var sw models.Swap
	var iniRating, recRating *int
	var iniComment, recComment *string
	err := row.Scan(
		&sw.ID, &sw.InitiatorID, &sw.RecipientID, &sw.InitiatorItemID, &sw.RecipientItemID,
		&sw.SwapType, &sw.PointsUsed, &sw.Status, &sw.Message, &iniRating, &iniComment,
		&recRating, &recComment, &sw.CompletedAt, &sw.CreatedAt, &sw.UpdatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	if iniRating != nil {
		sw.InitiatorRating = &models.SwapRating{Rating: *iniRating}
		if iniComment != nil {
			sw.InitiatorRating.Comment = *iniComment
		}
	}
	if recRating != nil {
		sw.RecipientRating = &models.SwapRating{Rating: *recRating}
		if recComment != nil {
			sw.RecipientRating.Comment = *recComment
		}
	}
	return &sw, nil
}

// CreateSwap сохраняет новое предложение обмена
func (s *SwapStore) CreateSwap(ctx context.Context, sw *models.Swap) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO swaps (id, initiator_id, recipient_id, initiator_item_id, recipient_item_id,
			swap_type, points_used, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sw.ID, sw.InitiatorID, sw.RecipientID, sw.InitiatorItemID, sw.RecipientItemID,
		sw.SwapType, sw.PointsUsed, sw.Status, sw.Message, sw.CreatedAt, sw.UpdatedAt)
	return wrapIfErr(err)
}

// GetSwap возвращает обмен по ID
func (s *SwapStore) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	return scanSwap(s.q.QueryRow(ctx, `SELECT `+swapColumns+` FROM swaps WHERE id = $1`, id))
}

// GetSwapForUpdate возвращает обмен с блокировкой строки
func (s *SwapStore) GetSwapForUpdate(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	return scanSwap(s.q.QueryRow(ctx, `SELECT `+swapColumns+` FROM swaps WHERE id = $1 FOR UPDATE`, id))
}

// UpdateSwap сохраняет изменяемые поля обмена
func (s *SwapStore) UpdateSwap(ctx context.Context, sw *models.Swap) error {
	var iniRating, recRating *int
	var iniComment, recComment *string
	if sw.InitiatorRating != nil {
		iniRating = &sw.InitiatorRating.Rating
		iniComment = &sw.InitiatorRating.Comment
	}
	if sw.RecipientRating != nil {
		recRating = &sw.RecipientRating.Rating
		recComment = &sw.RecipientRating.Comment
	}

	ct, err := s.q.Exec(ctx, `
		UPDATE swaps SET status = $2, message = $3, initiator_rating = $4,
			initiator_comment = $5, recipient_rating = $6, recipient_comment = $7,
			completed_at = $8, updated_at = $9
		WHERE id = $1
	`, sw.ID, sw.Status, sw.Message, iniRating, iniComment, recRating, recComment,
		sw.CompletedAt, sw.UpdatedAt)
	if err != nil {
		return wrapDBErr(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func wrapIfErr(err error) error {
	if err != nil {
		return wrapDBErr(err)
	}
	return nil
}
