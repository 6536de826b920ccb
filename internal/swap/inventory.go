package swap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

// Переходы статуса вещи. Каждый переход проверяется против текущего
// статуса, поэтому вызовы обязаны идти через tx-хранилище с блокировкой строк.

// ReserveItem резервирует вещь под обмен: available → pending.
// Вещь без модерации или уже занятая резервироваться не может.
func ReserveItem(ctx context.Context, tx Store, itemID uuid.UUID) error {
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.Swappable() {
		return fmt.Errorf("item %s is not available for reservation: %w", itemID, apperr.ErrConflict)
	}
	return tx.SetItemStatus(ctx, itemID, models.ItemPending)
}

// ReleaseItem снимает резерв: pending → available.
// Используется при отклонении и отмене обмена.
func ReleaseItem(ctx context.Context, tx Store, itemID uuid.UUID) error {
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status != models.ItemPending {
		return fmt.Errorf("item %s is not reserved: %w", itemID, apperr.ErrConflict)
	}
	return tx.SetItemStatus(ctx, itemID, models.ItemAvailable)
}

// FinalizeItem закрепляет обмен вещи: pending → swapped.
// Используется при принятии обмена.
func FinalizeItem(ctx context.Context, tx Store, itemID uuid.UUID) error {
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status != models.ItemPending {
		return fmt.Errorf("item %s is not reserved: %w", itemID, apperr.ErrConflict)
	}
	return tx.SetItemStatus(ctx, itemID, models.ItemSwapped)
}

// releaseSwapItems снимает резерв со всех вещей обмена
func releaseSwapItems(ctx context.Context, tx Store, s *models.Swap) error {
	for _, id := range s.ItemIDs() {
		if err := ReleaseItem(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// finalizeSwapItems закрепляет все вещи обмена
func finalizeSwapItems(ctx context.Context, tx Store, s *models.Swap) error {
	for _, id := range s.ItemIDs() {
		if err := FinalizeItem(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}
