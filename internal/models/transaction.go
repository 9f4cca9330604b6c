package models

import "time"

// Виды финансовых записей.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Статусы финансовой записи.
const (
	TransactionPending   = "pending"
	TransactionPaid      = "paid"
	TransactionCancelled = "cancelled"
	TransactionOverdue   = "overdue"
)

// Transaction — финансовая запись (доход или расход). Создаётся вручную
// пользователем либо генерируется правилом повторения; во втором случае
// RecurrenceID хранит обратную ссылку на породившее правило. Ссылка
// используется только для трассировки, правило записями не владеет.
type Transaction struct {
	ID             string     `json:"id"`
	UserUID        string     `json:"user_uid"`
	Kind           string     `json:"kind"`
	Description    string     `json:"description"`
	Amount         float64    `json:"amount"`
	DueDate        time.Time  `json:"due_date"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	Status         string     `json:"status"`
	CategoryID     string     `json:"category_id"`
	AccountID      string     `json:"account_id"`
	CostCenterID   *string    `json:"cost_center_id,omitempty"`
	SupplierID     *string    `json:"supplier_id,omitempty"`
	RecurrenceID   *string    `json:"recurrence_id,omitempty"`
	DocumentNumber *string    `json:"document_number,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DummyTransaction используется для приёма данных записи из JSON-запроса.
// Даты приходят строками в формате 2006-01-02.
type DummyTransaction struct {
	Kind           string  `json:"kind" validate:"required,oneof=income expense"`
	Description    string  `json:"description" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	DueDate        string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	PaymentDate    string  `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status         string  `json:"status,omitempty" validate:"omitempty,oneof=pending paid cancelled overdue"`
	CategoryID     string  `json:"category_id" validate:"required,uuid"`
	AccountID      string  `json:"account_id" validate:"required,uuid"`
	CostCenterID   string  `json:"cost_center_id,omitempty" validate:"omitempty,uuid"`
	SupplierID     string  `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	DocumentNumber string  `json:"document_number,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// TransactionStats — агрегаты по записям пользователя за период.
type TransactionStats struct {
	TotalIncome     float64 `json:"total_income"`
	TotalExpense    float64 `json:"total_expense"`
	Balance         float64 `json:"balance"`
	IncomePaid      float64 `json:"income_paid"`
	ExpensePaid     float64 `json:"expense_paid"`
	IncomePending   float64 `json:"income_pending"`
	ExpensePending  float64 `json:"expense_pending"`
}

// DummyStatsFilter — параметры периода для подсчёта агрегатов.
type DummyStatsFilter struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}
