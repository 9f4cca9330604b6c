package models

import "time"

// ProductType — тип продукта каталога.
type ProductType struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"user_uid"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DummyProductType — данные типа продукта из JSON-запроса.
type DummyProductType struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// Product — продукт каталога с ценами в двух валютах.
type Product struct {
	ID            string    `json:"id"`
	UserUID       string    `json:"user_uid"`
	ProductTypeID string    `json:"product_type_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	PriceKind     string    `json:"price_kind"`
	PriceBRL      float64   `json:"price_brl"`
	PriceUSD      float64   `json:"price_usd"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyProduct — данные продукта из JSON-запроса.
type DummyProduct struct {
	ProductTypeID string  `json:"product_type_id" validate:"required,uuid"`
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description,omitempty"`
	PriceKind     string  `json:"price_kind,omitempty"`
	PriceBRL      float64 `json:"price_brl,omitempty" validate:"omitempty,gte=0"`
	PriceUSD      float64 `json:"price_usd,omitempty" validate:"omitempty,gte=0"`
}
