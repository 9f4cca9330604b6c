package models

import "time"

// Account — финансовый счёт пользователя (банковский или кассовый).
type Account struct {
	ID             string    `json:"id"`
	UserUID        string    `json:"user_uid"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Bank           *string   `json:"bank,omitempty"`
	Branch         *string   `json:"branch,omitempty"`
	Number         *string   `json:"number,omitempty"`
	InitialBalance float64   `json:"initial_balance"`
	CurrentBalance float64   `json:"current_balance"`
	Active         bool      `json:"active"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DummyAccount — данные счёта из JSON-запроса.
type DummyAccount struct {
	Name           string  `json:"name" validate:"required"`
	Kind           string  `json:"kind" validate:"required"`
	Bank           string  `json:"bank,omitempty"`
	Branch         string  `json:"branch,omitempty"`
	Number         string  `json:"number,omitempty"`
	InitialBalance float64 `json:"initial_balance,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// Category — категория доходов или расходов; поддерживает вложенность
// через ParentID.
type Category struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"user_uid"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Color       *string   `json:"color,omitempty"`
	Description *string   `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DummyCategory — данные категории из JSON-запроса.
type DummyCategory struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=income expense"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// CostCenter — центр затрат.
type CostCenter struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"user_uid"`
	Name        string    `json:"name"`
	Code        *string   `json:"code,omitempty"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DummyCostCenter — данные центра затрат из JSON-запроса.
type DummyCostCenter struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Supplier — поставщик.
type Supplier struct {
	ID           string    `json:"id"`
	UserUID      string    `json:"user_uid"`
	Name         string    `json:"name"`
	Document     *string   `json:"document,omitempty"`
	DocumentKind *string   `json:"document_kind,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Active       bool      `json:"active"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DummySupplier — данные поставщика из JSON-запроса.
type DummySupplier struct {
	Name         string `json:"name" validate:"required"`
	Document     string `json:"document,omitempty"`
	DocumentKind string `json:"document_kind,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
