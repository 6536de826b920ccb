package models

import (
	"time"

	"github.com/google/uuid"
)

// Начальные значения для нового пользователя
const (
	StartingPoints = 100
	StartingRating = 5.0
)

// User представляет пользователя платформы
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Location       string    `json:"location,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Points         int       `json:"points"`
	Rating         float64   `json:"rating"`
	TotalRatings   int       `json:"total_ratings"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicUser представляет минимальную информацию о пользователе для API
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Rating    float64   `json:"rating"`
}

// Public возвращает публичную проекцию пользователя
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Rating:    u.Rating,
	}
}
