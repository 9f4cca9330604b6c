package models

import (
	"github.com/admin7club/financial-manager/internal/lib/entitlement"
)

// Plan — запись каталога тарифных планов. Для бизнес-логики каталог
// доступен только на чтение.
type Plan struct {
	ID              string                       `json:"id"`
	Name            string                       `json:"name"`
	Kind            string                       `json:"kind"` // trial или paid
	DurationMonths  int                          `json:"duration_months"`
	PriceBRL        float64                      `json:"price_brl"`
	PriceUSD        float64                      `json:"price_usd"`
	TrialDays       int                          `json:"trial_days"`
	MaxUsers        int                          `json:"max_users"`
	MaxTransactions int                          `json:"max_transactions"`
	MaxProducts     int                          `json:"max_products"`
	Features        map[entitlement.Feature]bool `json:"features"`
	Active          bool                         `json:"active"`
}
