// Package entitlement выводит статус лицензии и отвечает на запросы прав
// доступа: включена ли функция, не превышен ли лимит. Вся логика чистая —
// снимок лицензии и момент времени передаются явно, записей в хранилище
// пакет не делает.
//
// Политика по умолчанию — запрет: отсутствующая или просроченная лицензия
// не дает ни одной функции и ни одной единицы лимита.
package entitlement

import (
	"math"
	"time"
)

// Status — производный статус лицензии на момент проверки.
type Status string

// Производные статусы.
const (
	StatusTrial        Status = "trial"
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// Хранимые статусы записи лицензии. Expired и производные статусы выше
// пересекаются намеренно: запись может быть помечена истекшей явно,
// а может истечь просто по ходу часов.
const (
	RecordTrial     = "trial"
	RecordActive    = "active"
	RecordExpired   = "expired"
	RecordCancelled = "cancelled"
	RecordBlocked   = "blocked"
)

// Feature — закрытый перечень именованных функций. Свободные строковые
// ключи здесь запрещены: опечатка в имени не должна молча выдавать
// или отбирать доступ.
type Feature string

// Известные функции тарифных планов.
const (
	FeatureReports       Feature = "reports"
	FeatureMultiUser     Feature = "multi_user"
	FeatureExport        Feature = "export"
	FeatureAPIAccess     Feature = "api_access"
	FeatureKommoSync     Feature = "kommo_sync"
	FeatureMultiCurrency Feature = "multi_currency"
)

// LimitKind — вид лимита тарифного плана.
type LimitKind string

// Виды лимитов.
const (
	LimitUsers        LimitKind = "users"
	LimitTransactions LimitKind = "transactions"
	LimitProducts     LimitKind = "products"
)

// Unlimited — сигнальное значение лимита "без ограничений".
const Unlimited = -1

// expiringSoonDays — порог в днях для статуса expiring_soon.
const expiringSoonDays = 7

// License — снимок записи лицензии, достаточный для вывода прав.
type License struct {
	Status          string
	PlanType        string
	Blocked         bool
	StartDate       time.Time
	ExpiryDate      time.Time
	MaxUsers        int
	MaxTransactions int
	MaxProducts     int
	Features        map[Feature]bool
}

// Info — результат вывода: статус, остаток дней и снятые с лицензии
// лимиты и функции. Методы Info отвечают на запросы прав.
type Info struct {
	Status          Status           `json:"status"`
	DaysRemaining   int              `json:"days_remaining"`
	MaxUsers        int              `json:"max_users"`
	MaxTransactions int              `json:"max_transactions"`
	MaxProducts     int              `json:"max_products"`
	Features        map[Feature]bool `json:"features"`
}

// Derive выводит Info из записи лицензии на момент now.
//
// nil вместо записи означает отсутствие лицензии: возвращается истекший
// Info с нулевыми лимитами и без функций.
func Derive(lic *License, now time.Time) Info {
	if lic == nil {
		return Info{Status: StatusExpired}
	}

	days := daysRemaining(lic.ExpiryDate, now)
	info := Info{
		DaysRemaining:   days,
		MaxUsers:        lic.MaxUsers,
		MaxTransactions: lic.MaxTransactions,
		MaxProducts:     lic.MaxProducts,
		Features:        lic.Features,
	}

	switch {
	case expired(lic, now):
		info.Status = StatusExpired
	case days <= expiringSoonDays:
		info.Status = StatusExpiringSoon
	case lic.Status == RecordTrial || lic.PlanType == RecordTrial:
		info.Status = StatusTrial
	default:
		info.Status = StatusActive
	}
	return info
}

// HasFeature сообщает, включена ли функция. Для истекшей лицензии всегда
// false, даже если флаг в записи стоит.
func (i Info) HasFeature(f Feature) bool {
	if i.Status == StatusExpired {
		return false
	}
	return i.Features[f]
}

// WithinLimit сообщает, помещается ли текущее количество current в лимит
// вида kind. Лимит Unlimited всегда проходит; при отсутствии лицензии
// лимиты нулевые, поэтому ответ всегда false.
func (i Info) WithinLimit(kind LimitKind, current int) bool {
	limit, ok := i.limitFor(kind)
	if !ok {
		return false
	}
	if limit == Unlimited {
		return true
	}
	return current < limit
}

func (i Info) limitFor(kind LimitKind) (int, bool) {
	switch kind {
	case LimitUsers:
		return i.MaxUsers, true
	case LimitTransactions:
		return i.MaxTransactions, true
	case LimitProducts:
		return i.MaxProducts, true
	}
	return 0, false
}

// expired объединяет истечение по часам и явные терминальные статусы.
// Заблокированная запись перекрывает все проверки независимо от даты.
func expired(lic *License, now time.Time) bool {
	if lic.Blocked {
		return true
	}
	switch lic.Status {
	case RecordExpired, RecordCancelled, RecordBlocked:
		return true
	}
	return now.After(lic.ExpiryDate)
}

// daysRemaining — max(0, ceil((expiry-now)/сутки)).
func daysRemaining(expiry, now time.Time) int {
	diff := expiry.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
