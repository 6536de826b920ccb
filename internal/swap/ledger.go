package swap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
)

// Операции над балансом и рейтингом пользователей. Как и переходы
// инвентаря, выполняются только внутри транзакции обмена.

// TransferPoints переводит баллы между пользователями. Списание и
// зачисление атомарны в рамках транзакции: неудачное списание
// (недостаточный баланс) откатывает весь переход.
func TransferPoints(ctx context.Context, tx Store, fromID, toID uuid.UUID, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive: %w", apperr.ErrValidation)
	}
	if err := tx.AdjustPoints(ctx, fromID, -amount); err != nil {
		return err
	}
	return tx.AdjustPoints(ctx, toID, amount)
}

// RecordRating пересчитывает скользящее среднее рейтинга пользователя:
// rating' = (rating*totalRatings + new) / (totalRatings + 1)
func RecordRating(ctx context.Context, tx Store, targetID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5: %w", apperr.ErrValidation)
	}
	user, err := tx.GetUserForUpdate(ctx, targetID)
	if err != nil {
		return err
	}
	total := user.TotalRatings + 1
	mean := (user.Rating*float64(user.TotalRatings) + float64(rating)) / float64(total)
	return tx.SetUserRating(ctx, targetID, mean, total)
}
