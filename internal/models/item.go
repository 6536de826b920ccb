package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus описывает доступность вещи для обмена
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemPending   ItemStatus = "pending"
	ItemSwapped   ItemStatus = "swapped"
	ItemInactive  ItemStatus = "inactive"
)

// ApprovalStatus описывает состояние модерации вещи
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Ограничения стоимости вещи в баллах
const (
	MinPointsValue = 1
	MaxPointsValue = 200
)

// Item представляет вещь, выставленную на обмен
type Item struct {
	ID              uuid.UUID      `json:"id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Type            string         `json:"type"`
	Size            string         `json:"size"`
	Condition       string         `json:"condition"`
	Brand           string         `json:"brand,omitempty"`
	Color           string         `json:"color,omitempty"`
	Material        string         `json:"material,omitempty"`
	Tags            []string       `json:"tags"`
	Images          []string       `json:"images"`
	PointsValue     int            `json:"points_value"`
	Status          ItemStatus     `json:"status"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	Views           int            `json:"views"`
	LikesCount      int            `json:"likes_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Дополнительные поля для API
	Owner *PublicUser `json:"owner,omitempty"`
}

// Допустимые значения категорий, размеров и состояний
var (
	ValidCategories = map[string]bool{
		"tops": true, "bottoms": true, "dresses": true, "outerwear": true,
		"shoes": true, "accessories": true, "other": true,
	}
	ValidSizes = map[string]bool{
		"XS": true, "S": true, "M": true, "L": true,
		"XL": true, "XXL": true, "XXXL": true, "One Size": true,
	}
	ValidConditions = map[string]bool{
		"new": true, "like-new": true, "good": true, "fair": true, "poor": true,
	}
)

// Swappable сообщает, можно ли зарезервировать вещь под новый обмен
func (i *Item) Swappable() bool {
	return i.Status == ItemAvailable && i.ApprovalStatus == ApprovalApproved
}
