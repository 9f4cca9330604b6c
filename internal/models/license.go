package models

import (
	"time"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
)

// License — запись лицензии пользователя. Текущей считается последняя
// активированная запись; истёкшей лицензия становится по ходу часов,
// без записи в хранилище.
type License struct {
	ID             string
	UserUID        string
	PlanID         *string
	PlanType       string
	Status         string
	Active         bool
	Blocked        bool
	BlockReason    *string
	LicenseKey     *string
	StartDate      time.Time
	ExpiryDate     time.Time
	ActivationDate *time.Time
	LastUsedDate   *time.Time
	UsageAttempts  int
	MaxUsers       int
	MaxTransactions int
	MaxProducts    int
	Features       map[entitlement.Feature]bool
}

// Snapshot собирает чистый снимок лицензии для вывода прав.
func (l *License) Snapshot() *entitlement.License {
	if l == nil {
		return nil
	}
	return &entitlement.License{
		Status:          l.Status,
		PlanType:        l.PlanType,
		Blocked:         l.Blocked,
		StartDate:       l.StartDate,
		ExpiryDate:      l.ExpiryDate,
		MaxUsers:        l.MaxUsers,
		MaxTransactions: l.MaxTransactions,
		MaxProducts:     l.MaxProducts,
		Features:        l.Features,
	}
}

// LicenseInfo — ответ проверки статуса лицензии: производный статус,
// лимиты и функции плюс название плана.
type LicenseInfo struct {
	entitlement.Info
	PlanName string `json:"plan_name"`
}

// LicenseHistoryEntry — строка журнала действий над лицензией.
type LicenseHistoryEntry struct {
	ID            string
	UserUID       string
	LicenseID     string
	PlanID        *string
	Action        string
	PreviousDate  *time.Time
	NewDate       *time.Time
	AmountPaid    *float64
	PaymentMethod *string
	Notes         *string
	CreatedAt     time.Time
}

// Действия журнала лицензий.
const (
	LicenseActionTrial      = "trial"
	LicenseActionActivation = "activation"
	LicenseActionRenewal    = "renewal"
)

// DummyActivateLicense — данные активации лицензии из JSON-запроса.
type DummyActivateLicense struct {
	PlanID           string `json:"plan_id" validate:"required,uuid"`
	LicenseKey       string `json:"license_key,omitempty"`
	AdditionalMonths int    `json:"additional_months,omitempty" validate:"omitempty,gte=0"`
}
