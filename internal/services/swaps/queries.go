package swaps

import (
	"github.com/jackc/pgx/v5"

	"github.com/rewear-app/rewear-api/internal/models"
)

const swapSelectColumns = `id, initiator_id, recipient_id, initiator_item_id, recipient_item_id,
	swap_type, points_used, status, message, initiator_rating, initiator_comment,
	recipient_rating, recipient_comment, completed_at, created_at, updated_at`

// scanSwapRow читает строку списка обменов
func scanSwapRow(row pgx.Row) (*models.Swap, error) {
	var sw models.Swap
	var iniRating, recRating *int
	var iniComment, recComment *string
	err := row.Scan(
		&sw.ID, &sw.InitiatorID, &sw.RecipientID, &sw.InitiatorItemID, &sw.RecipientItemID,
		&sw.SwapType, &sw.PointsUsed, &sw.Status, &sw.Message, &iniRating, &iniComment,
		&recRating, &recComment, &sw.CompletedAt, &sw.CreatedAt, &sw.UpdatedAt,
	)
	if err != nil {
		return nil, err
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
