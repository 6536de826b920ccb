package item

import (
	"github.com/jackc/pgx/v5"

	"github.com/rewear-app/rewear-api/internal/models"
)

const itemSelectColumns = `id, owner_id, title, description, category, type, size, condition,
	brand, color, material, tags, images, points_value, status, approval_status,
	rejection_reason, views, created_at, updated_at,
	(SELECT COUNT(*) FROM item_likes WHERE item_id = items.id) AS likes_count`

// scanItemRow читает строку вещи вместе со счетчиком лайков
func scanItemRow(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
		&item.Type, &item.Size, &item.Condition, &item.Brand, &item.Color,
		&item.Material, &item.Tags, &item.Images, &item.PointsValue, &item.Status,
		&item.ApprovalStatus, &item.RejectionReason, &item.Views,
		&item.CreatedAt, &item.UpdatedAt, &item.LikesCount,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
