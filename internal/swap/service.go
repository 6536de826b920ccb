// Package swap реализует жизненный цикл обмена: создание, ответ получателя,
// завершение, отмену и оценку. Каждый переход выполняется одной транзакцией
// над Store, так что баллы, статусы вещей и статус обмена меняются как единое
// целое либо не меняются вовсе.
package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

// Ограничения длины текстовых полей
const (
	maxCreateMessageLen  = 500
	maxRespondMessageLen = 300
	maxRatingCommentLen  = 200
)

// Service — менеджер жизненного цикла обменов
type Service struct {
	store Store
}

// NewService создает новый экземпляр Service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateParams — параметры создания обмена
type CreateParams struct {
	RecipientItemID uuid.UUID
	SwapType        models.SwapType
	InitiatorItemID *uuid.UUID
	Message         string
}

// Create создает предложение обмена в статусе pending и резервирует
// задействованные вещи. Баллы при создании не переводятся — перевод
// происходит только при принятии.
func (s *Service) Create(ctx context.Context, initiatorID uuid.UUID, p CreateParams) (*models.Swap, error) {
	if p.SwapType != models.SwapTypeItem && p.SwapType != models.SwapTypePoints {
		return nil, fmt.Errorf("unknown swap type %q: %w", p.SwapType, apperr.ErrValidation)
	}
	if len(p.Message) > maxCreateMessageLen {
		return nil, fmt.Errorf("message cannot exceed %d characters: %w", maxCreateMessageLen, apperr.ErrValidation)
	}

	var created *models.Swap
	err := s.store.WithTx(ctx, func(tx Store) error {
		recipientItem, err := tx.GetItemForUpdate(ctx, p.RecipientItemID)
		if err != nil {
			return err
		}
		if !recipientItem.Swappable() {
			return fmt.Errorf("item is not available for swap: %w", apperr.ErrInvalidState)
		}
		// Сравниваем владельцев, а не вещи: обе вещи одного пользователя
		// тоже считаются самообменом
		if recipientItem.OwnerID == initiatorID {
			return apperr.ErrSelfSwap
		}

		now := time.Now()
		sw := &models.Swap{
			ID:              uuid.New(),
			InitiatorID:     initiatorID,
			RecipientID:     recipientItem.OwnerID,
			RecipientItemID: p.RecipientItemID,
			SwapType:        p.SwapType,
			Status:          models.SwapPending,
			Message:         p.Message,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		switch p.SwapType {
		case models.SwapTypeItem:
			if p.InitiatorItemID == nil {
				return fmt.Errorf("initiator item is required for item swaps: %w", apperr.ErrValidation)
			}
			initiatorItem, err := tx.GetItemForUpdate(ctx, *p.InitiatorItemID)
			if err != nil {
				return err
			}
			if initiatorItem.OwnerID != initiatorID {
				return fmt.Errorf("item does not belong to initiator: %w", apperr.ErrForbidden)
			}
			if !initiatorItem.Swappable() {
				return fmt.Errorf("offered item is not available for swap: %w", apperr.ErrInvalidState)
			}
			sw.InitiatorItemID = p.InitiatorItemID

		case models.SwapTypePoints:
			initiator, err := tx.GetUser(ctx, initiatorID)
			if err != nil {
				return err
			}
			// Стоимость фиксируется на момент создания
			if initiator.Points < recipientItem.PointsValue {
				return fmt.Errorf("need %d points: %w", recipientItem.PointsValue, apperr.ErrInsufficientPoints)
			}
			sw.PointsUsed = recipientItem.PointsValue
		}

		if err := tx.CreateSwap(ctx, sw); err != nil {
			return err
		}
		if err := ReserveItem(ctx, tx, sw.RecipientItemID); err != nil {
			return err
		}
		if sw.InitiatorItemID != nil {
			if err := ReserveItem(ctx, tx, *sw.InitiatorItemID); err != nil {
				return err
			}
		}

		created = sw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Respond обрабатывает ответ получателя на предложение обмена.
// При принятии сначала переводятся баллы (неудача откатывает переход
// целиком), затем вещи закрепляются за новыми владельцами.
func (s *Service) Respond(ctx context.Context, swapID, responderID uuid.UUID, decision models.SwapStatus, message string) (*models.Swap, error) {
	if decision != models.SwapAccepted && decision != models.SwapRejected {
		return nil, fmt.Errorf("decision must be accepted or rejected: %w", apperr.ErrValidation)
	}
	if len(message) > maxRespondMessageLen {
		return nil, fmt.Errorf("message cannot exceed %d characters: %w", maxRespondMessageLen, apperr.ErrValidation)
	}

	var updated *models.Swap
	err := s.store.WithTx(ctx, func(tx Store) error {
		sw, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if sw.RecipientID != responderID {
			return fmt.Errorf("only the recipient can respond: %w", apperr.ErrForbidden)
		}
		if sw.Status != models.SwapPending {
			return fmt.Errorf("swap is not pending: %w", apperr.ErrInvalidState)
		}

		if decision == models.SwapAccepted {
			if sw.SwapType == models.SwapTypePoints {
				if err := TransferPoints(ctx, tx, sw.InitiatorID, sw.RecipientID, sw.PointsUsed); err != nil {
					return err
				}
			}
			if err := finalizeSwapItems(ctx, tx, sw); err != nil {
				return err
			}
		} else {
			if err := releaseSwapItems(ctx, tx, sw); err != nil {
				return err
			}
		}

		sw.Status = decision
		if message != "" {
			sw.Message = message
		}
		sw.UpdatedAt = time.Now()
		if err := tx.UpdateSwap(ctx, sw); err != nil {
			return err
		}

		updated = sw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete переводит принятый обмен в завершённый. Завершить может любая
// из сторон; повторный вызов возвращает ErrInvalidState.
func (s *Service) Complete(ctx context.Context, swapID, callerID uuid.UUID) (*models.Swap, error) {
	var updated *models.Swap
	err := s.store.WithTx(ctx, func(tx Store) error {
		sw, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if !sw.IsParty(callerID) {
			return fmt.Errorf("only a swap party can complete it: %w", apperr.ErrForbidden)
		}
		if sw.Status != models.SwapAccepted {
			return fmt.Errorf("swap is not accepted: %w", apperr.ErrInvalidState)
		}

		now := time.Now()
		sw.Status = models.SwapCompleted
		sw.CompletedAt = &now
		sw.UpdatedAt = now
		if err := tx.UpdateSwap(ctx, sw); err != nil {
			return err
		}

		updated = sw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel отменяет ожидающий обмен. Доступно только инициатору и только
// пока обмен pending: принятый обмен в одностороннем порядке не отменяется.
func (s *Service) Cancel(ctx context.Context, swapID, callerID uuid.UUID) (*models.Swap, error) {
	var updated *models.Swap
	err := s.store.WithTx(ctx, func(tx Store) error {
		sw, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if sw.InitiatorID != callerID {
			return fmt.Errorf("only the initiator can cancel: %w", apperr.ErrForbidden)
		}
		if sw.Status != models.SwapPending {
			return fmt.Errorf("swap is not pending: %w", apperr.ErrInvalidState)
		}

		if err := releaseSwapItems(ctx, tx, sw); err != nil {
			return err
		}

		sw.Status = models.SwapCancelled
		sw.UpdatedAt = time.Now()
		if err := tx.UpdateSwap(ctx, sw); err != nil {
			return err
		}

		updated = sw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Rate записывает оценку завершённого обмена и пересчитывает рейтинг
// второго участника. Каждая сторона оценивает один раз.
func (s *Service) Rate(ctx context.Context, swapID, raterID uuid.UUID, rating int, comment string) (*models.Swap, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", apperr.ErrValidation)
	}
	if len(comment) > maxRatingCommentLen {
		return nil, fmt.Errorf("comment cannot exceed %d characters: %w", maxRatingCommentLen, apperr.ErrValidation)
	}

	var updated *models.Swap
	err := s.store.WithTx(ctx, func(tx Store) error {
		sw, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if sw.Status != models.SwapCompleted {
			return fmt.Errorf("only completed swaps can be rated: %w", apperr.ErrInvalidState)
		}
		if !sw.IsParty(raterID) {
			return fmt.Errorf("only a swap party can rate it: %w", apperr.ErrForbidden)
		}
		if sw.RatingFor(raterID) != nil {
			return fmt.Errorf("swap already rated by this side: %w", apperr.ErrConflict)
		}

		sw.SetRatingFor(raterID, &models.SwapRating{Rating: rating, Comment: comment})
		if err := RecordRating(ctx, tx, sw.OtherParty(raterID), rating); err != nil {
			return err
		}

		sw.UpdatedAt = time.Now()
		if err := tx.UpdateSwap(ctx, sw); err != nil {
			return err
		}

		updated = sw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get возвращает обмен, доступен только его участникам
func (s *Service) Get(ctx context.Context, swapID, callerID uuid.UUID) (*models.Swap, error) {
	sw, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if !sw.IsParty(callerID) {
		return nil, fmt.Errorf("not a party of this swap: %w", apperr.ErrForbidden)
	}
	return sw, nil
}
