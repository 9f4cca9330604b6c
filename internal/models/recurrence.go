package models

import (
	"time"

	"github.com/admin7club/financial-manager/internal/lib/recurrence"
)

// Recurrence — правило регулярной генерации финансовых записей.
// Поля расписания (NextDate, TotalGenerated, Active) мутируются обходчиком
// и пользователем; остальные поля задаются при создании и редактировании.
type Recurrence struct {
	ID              string               `json:"id"`
	UserUID         string               `json:"user_uid"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Kind            string               `json:"kind"`
	Amount          float64              `json:"amount"`
	Frequency       recurrence.Frequency `json:"frequency"`
	StartDate       time.Time            `json:"start_date"`
	EndDate         *time.Time           `json:"end_date,omitempty"`
	Active          bool                 `json:"active"`
	NextDate        *time.Time           `json:"next_date,omitempty"`
	TotalGenerated  int                  `json:"total_generated"`
	GenerationLimit *int                 `json:"generation_limit,omitempty"`
	CategoryID      string               `json:"category_id"`
	AccountID       string               `json:"account_id"`
	CostCenterID    *string              `json:"cost_center_id,omitempty"`
	SupplierID      *string              `json:"supplier_id,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Schedule собирает снимок полей расписания для чистой оценки правила.
func (r *Recurrence) Schedule() recurrence.Rule {
	return recurrence.Rule{
		Active:          r.Active,
		Frequency:       r.Frequency,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		NextDate:        r.NextDate,
		TotalGenerated:  r.TotalGenerated,
		GenerationLimit: r.GenerationLimit,
	}
}

// Generation — единица работы обходчика: запись, которую нужно вставить,
// и продвижение расписания породившего её правила. PrevNextDate — значение
// next_date на момент оценки, условие атомарного применения.
type Generation struct {
	RecurrenceID string
	Transaction  Transaction
	PrevNextDate *time.Time
	NextDate     time.Time
}

// DummyRecurrence используется для приёма правила из JSON-запроса.
type DummyRecurrence struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description" validate:"required"`
	Kind            string  `json:"kind" validate:"required,oneof=income expense"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Frequency       string  `json:"frequency" validate:"required"`
	StartDate       string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	GenerationLimit *int    `json:"generation_limit,omitempty" validate:"omitempty,gt=0"`
	CategoryID      string  `json:"category_id" validate:"required,uuid"`
	AccountID       string  `json:"account_id" validate:"required,uuid"`
	CostCenterID    string  `json:"cost_center_id,omitempty" validate:"omitempty,uuid"`
	SupplierID      string  `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	Notes           string  `json:"notes,omitempty"`
}
