// Package apperr содержит доменные ошибки сервиса.
// Ошибки чистые — без зависимости от инфраструктуры; на HTTP-границе
// они преобразуются в статус через StatusCode.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v3"
)

var (
	// ErrNotFound — запрошенный объект не существует
	ErrNotFound = errors.New("not found")
	// ErrForbidden — действие недоступно для роли вызывающего
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState — переход недопустим для текущего статуса
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation — некорректные или неполные входные данные
	ErrValidation = errors.New("validation failed")
	// ErrSelfSwap — попытка обмена с собственной вещью
	ErrSelfSwap = errors.New("cannot swap with yourself")
	// ErrInsufficientPoints — недостаточно баллов для выкупа
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrConflict — ресурс занят или действие уже выполнено
	ErrConflict = errors.New("conflict")
	// ErrTransient — инфраструктурный сбой, запрос можно повторить
	ErrTransient = errors.New("transient failure")
)

// StatusCode возвращает HTTP-статус для доменной ошибки
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrValidation), errors.Is(err, ErrSelfSwap), errors.Is(err, ErrInsufficientPoints):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrTransient):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
