package models

import "time"

// ExchangeRate — курс валюты к BRL, обновляется фоновой задачей.
type ExchangeRate struct {
	Currency  string    `json:"currency"`
	RateBRL   float64   `json:"rate_brl"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}
