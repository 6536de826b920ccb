package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

func TestInventoryTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		from       models.ItemStatus
		approval   models.ApprovalStatus
		op         string
		wantErr    error
		wantStatus models.ItemStatus
	}{
		{"reserve available", models.ItemAvailable, models.ApprovalApproved, "reserve", nil, models.ItemPending},
		{"reserve pending", models.ItemPending, models.ApprovalApproved, "reserve", apperr.ErrConflict, models.ItemPending},
		{"reserve swapped", models.ItemSwapped, models.ApprovalApproved, "reserve", apperr.ErrConflict, models.ItemSwapped},
		{"reserve inactive", models.ItemInactive, models.ApprovalApproved, "reserve", apperr.ErrConflict, models.ItemInactive},
		{"reserve unapproved", models.ItemAvailable, models.ApprovalPending, "reserve", apperr.ErrConflict, models.ItemAvailable},
		{"release pending", models.ItemPending, models.ApprovalApproved, "release", nil, models.ItemAvailable},
		{"release available", models.ItemAvailable, models.ApprovalApproved, "release", apperr.ErrConflict, models.ItemAvailable},
		{"release swapped", models.ItemSwapped, models.ApprovalApproved, "release", apperr.ErrConflict, models.ItemSwapped},
		{"finalize pending", models.ItemPending, models.ApprovalApproved, "finalize", nil, models.ItemSwapped},
		{"finalize available", models.ItemAvailable, models.ApprovalApproved, "finalize", apperr.ErrConflict, models.ItemAvailable},
		{"finalize swapped", models.ItemSwapped, models.ApprovalApproved, "finalize", apperr.ErrConflict, models.ItemSwapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			owner := store.addUser(100)
			itemID := store.addItem(owner, 50)
			store.items[itemID].Status = tt.from
			store.items[itemID].ApprovalStatus = tt.approval

			err := store.WithTx(ctx, func(tx Store) error {
				switch tt.op {
				case "reserve":
					return ReserveItem(ctx, tx, itemID)
				case "release":
					return ReleaseItem(ctx, tx, itemID)
				default:
					return FinalizeItem(ctx, tx, itemID)
				}
			})

			if tt.wantErr == nil && err != nil {
				t.Fatalf("%s: %v", tt.op, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("%s: error = %v, want %v", tt.op, err, tt.wantErr)
			}
			if got := itemStatus(t, store, itemID); got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
		})
	}
}

func TestInventoryMissingItem(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	err := store.WithTx(ctx, func(tx Store) error {
		return ReserveItem(ctx, tx, uuid.New())
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
