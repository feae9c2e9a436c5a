package domain

import "errors"

var (
	// ErrValidation пустая корзина, пустое поле, неверная цена или дата
	ErrValidation = errors.New("validation error")
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrConstraint нарушение ссылочной целостности или защиты администратора
	ErrConstraint = errors.New("constraint violation")
	// ErrInvalidCredentials неверный логин или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
)
