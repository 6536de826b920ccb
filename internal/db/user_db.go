package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

// uniqueViolation — код ошибки Postgres для нарушения уникальности
const uniqueViolation = "23505"

// CreateUser регистрирует нового пользователя со стартовым балансом
// и рейтингом.
func CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*models.User, error) {
	row := Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, points, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns+`
	`, email, passwordHash, firstName, lastName, models.StartingPoints, models.StartingRating)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("email already registered: %w", apperr.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail возвращает пользователя по email
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByID возвращает пользователя по ID
func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateUserProfile обновляет редактируемые поля профиля
func UpdateUserProfile(ctx context.Context, id uuid.UUID, firstName, lastName, location, bio, profilePicture string) (*models.User, error) {
	row := Pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, location = $4, bio = $5,
			profile_picture = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, firstName, lastName, location, bio, profilePicture)
	return scanUser(row)
}
