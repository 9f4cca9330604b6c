// Package recurrence содержит чистую логику генерации регулярных платежей:
// расчет следующей даты по частоте и решение о том, нужно ли создавать
// новую финансовую запись для правила на заданную дату.
//
// Пакет не обращается к часам, базе данных или сети — все входные данные
// передаются явно, результат детерминирован.
package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Frequency определяет периодичность повторения правила.
type Frequency string

// Поддерживаемые частоты генерации.
const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Biweekly   Frequency = "biweekly"
	Monthly    Frequency = "monthly"
	Bimonthly  Frequency = "bimonthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Annual     Frequency = "annual"
)

// ErrUnknownFrequency возвращается при неизвестном значении частоты.
// Ошибка фатальна только для одного правила, обход остальных продолжается.
var ErrUnknownFrequency = errors.New("unknown recurrence frequency")

// Rule — снимок полей расписания одного правила.
// Сервисный слой собирает его из модели хранилища.
type Rule struct {
	Active          bool
	Frequency       Frequency
	StartDate       time.Time
	EndDate         *time.Time // nil — без даты окончания
	NextDate        *time.Time // nil — правило еще не генерировало
	TotalGenerated  int
	GenerationLimit *int // nil — без ограничения количества
}

// Decision — результат оценки правила на дату today.
//
// Fire=true означает, что вызывающая сторона должна в ОДНОЙ транзакции:
// создать запись с датой DueDate, записать NextDate в правило и
// увеличить счетчик сгенерированных. Deactivate=true означает, что правило
// исчерпано (дата окончания или лимит) и его нужно выключить.
type Decision struct {
	Fire       bool
	Deactivate bool
	DueDate    time.Time
	NextDate   time.Time
}

// Evaluate решает, должно ли правило сгенерировать запись на дату today.
//
// Порядок проверок: неактивное правило, истекшая дата окончания,
// исчерпанный лимит генераций, еще не наступившая дата. Повторный вызов
// с теми же аргументами возвращает то же решение — идемпотентность
// обеспечивается тем, что вызывающая сторона фиксирует NextDate до
// следующего обхода.
func Evaluate(rule Rule, today time.Time) (Decision, error) {
	const op = "recurrence.Evaluate"

	today = dateOnly(today)

	if !rule.Active {
		return Decision{}, nil
	}
	if rule.EndDate != nil && today.After(dateOnly(*rule.EndDate)) {
		return Decision{Deactivate: true}, nil
	}
	if rule.GenerationLimit != nil && rule.TotalGenerated >= *rule.GenerationLimit {
		return Decision{Deactivate: true}, nil
	}

	due := dateOnly(rule.StartDate)
	if rule.NextDate != nil {
		due = dateOnly(*rule.NextDate)
	}
	if due.After(today) {
		return Decision{}, nil
	}

	next, err := Advance(due, rule.Frequency)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	return Decision{Fire: true, DueDate: due, NextDate: next}, nil
}

// Advance возвращает следующую календарную дату после date для частоты freq.
//
// Для месячных интервалов день месяца сохраняется с прижатием к последнему
// дню короткого месяца: 31 января + 1 месяц = 29 февраля в високосный год,
// а не 2 марта.
func Advance(date time.Time, freq Frequency) (time.Time, error) {
	switch freq {
	case Daily:
		return date.AddDate(0, 0, 1), nil
	case Weekly:
		return date.AddDate(0, 0, 7), nil
	case Biweekly:
		return date.AddDate(0, 0, 14), nil
	case Monthly:
		return addMonthsClamped(date, 1), nil
	case Bimonthly:
		return addMonthsClamped(date, 2), nil
	case Quarterly:
		return addMonthsClamped(date, 3), nil
	case Semiannual:
		return addMonthsClamped(date, 6), nil
	case Annual:
		return addMonthsClamped(date, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, freq)
	}
}

// Valid сообщает, является ли значение частоты одним из поддерживаемых.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Bimonthly, Quarterly, Semiannual, Annual:
		return true
	}
	return false
}

// addMonthsClamped прибавляет months месяцев, прижимая день к концу месяца.
// time.AddDate здесь не подходит: он нормализует переполнение дня в
// следующий месяц.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
