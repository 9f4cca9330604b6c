package models

import "time"

// Статусы платежа за лицензию.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// CheckoutPayment — платёж за покупку или продление тарифного плана
// у внешнего платёжного провайдера.
type CheckoutPayment struct {
	ID         string    `json:"id"`
	UserUID    string    `json:"user_uid"`
	PlanID     string    `json:"plan_id"`
	ProviderID string    `json:"provider_id"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

// DummyCheckout — данные запроса на оплату плана.
type DummyCheckout struct {
	PlanID   string `json:"plan_id" validate:"required,uuid"`
	Currency string `json:"currency,omitempty" validate:"omitempty,oneof=BRL USD"`
}

// EntryInfo — полезная нагрузка уведомления об истекающей лицензии,
// публикуемая в очередь и потребляемая отправителем писем.
type EntryInfo struct {
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PlanName      string    `json:"plan_name"`
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysRemaining int       `json:"days_remaining"`
}
