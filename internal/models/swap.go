package models

import (
	"time"

	"github.com/google/uuid"
)

// SwapType описывает вариант обмена
type SwapType string

const (
	// SwapTypeItem — обмен вещи на вещь, заполнено поле InitiatorItemID
	SwapTypeItem SwapType = "item-swap"
	// SwapTypePoints — выкуп вещи за баллы, заполнено поле PointsUsed
	SwapTypePoints SwapType = "point-redemption"
)

// SwapStatus описывает состояние обмена
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
	SwapCancelled SwapStatus = "cancelled"
)

// Terminal сообщает, является ли состояние конечным.
// Завершённый обмен — неизменяемая запись истории, он никогда не удаляется.
func (s SwapStatus) Terminal() bool {
	return s == SwapRejected || s == SwapCompleted || s == SwapCancelled
}

// SwapRating представляет оценку одной из сторон обмена
type SwapRating struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Swap представляет предложение об обмене между двумя пользователями.
// Инвариант варианта: InitiatorItemID заполнен только для item-swap,
// PointsUsed — только для point-redemption.
type Swap struct {
	ID              uuid.UUID  `json:"id"`
	InitiatorID     uuid.UUID  `json:"initiator_id"`
	RecipientID     uuid.UUID  `json:"recipient_id"`
	InitiatorItemID *uuid.UUID `json:"initiator_item_id,omitempty"`
	RecipientItemID uuid.UUID  `json:"recipient_item_id"`
	SwapType        SwapType   `json:"swap_type"`
	PointsUsed      int        `json:"points_used,omitempty"`
	Status          SwapStatus `json:"status"`
	Message         string     `json:"message,omitempty"`

	InitiatorRating *SwapRating `json:"initiator_rating,omitempty"`
	RecipientRating *SwapRating `json:"recipient_rating,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	Initiator     *PublicUser `json:"initiator,omitempty"`
	Recipient     *PublicUser `json:"recipient,omitempty"`
	InitiatorItem *Item       `json:"initiator_item,omitempty"`
	RecipientItem *Item       `json:"recipient_item,omitempty"`
}

// IsParty сообщает, участвует ли пользователь в обмене
func (s *Swap) IsParty(userID uuid.UUID) bool {
	return s.InitiatorID == userID || s.RecipientID == userID
}

// RatingFor возвращает слот оценки для стороны пользователя
func (s *Swap) RatingFor(userID uuid.UUID) *SwapRating {
	if s.InitiatorID == userID {
		return s.InitiatorRating
	}
	return s.RecipientRating
}

// SetRatingFor записывает оценку в слот стороны пользователя
func (s *Swap) SetRatingFor(userID uuid.UUID, r *SwapRating) {
	if s.InitiatorID == userID {
		s.InitiatorRating = r
		return
	}
	s.RecipientRating = r
}

// OtherParty возвращает второго участника обмена
func (s *Swap) OtherParty(userID uuid.UUID) uuid.UUID {
	if s.InitiatorID == userID {
		return s.RecipientID
	}
	return s.InitiatorID
}

// ItemIDs возвращает вещи, задействованные в обмене
func (s *Swap) ItemIDs() []uuid.UUID {
	ids := []uuid.UUID{s.RecipientItemID}
	if s.InitiatorItemID != nil {
		ids = append(ids, *s.InitiatorItemID)
	}
	return ids
}
