// Package models содержит доменные структуры финансового менеджера,
// а также вспомогательные Dummy-типы для приёма данных из JSON-запросов
// до их валидации и преобразования.
package models

import "time"

// User представляет пользователя системы.
type User struct {
	UID          string
	Email        string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastSignIn   *time.Time
}

// DummyRegisterRequest — данные регистрации из JSON-запроса.
type DummyRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLoginRequest — данные входа из JSON-запроса.
type DummyLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
