// Package metrics объявляет счетчики Prometheus приложения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GeneratedTransactions — количество финансовых записей, созданных
	// обходчиком правил повторения.
	GeneratedTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financial_manager_generated_transactions_total",
		Help: "Number of transactions generated from recurrence rules.",
	})

	// MisconfiguredRecurrences — количество правил, пропущенных из-за
	// нераспознанной частоты.
	MisconfiguredRecurrences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financial_manager_misconfigured_recurrences_total",
		Help: "Number of recurrence rules skipped due to invalid configuration.",
	})

	// LicenseChecks — количество проверок статуса лицензии по производному статусу.
	LicenseChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financial_manager_license_checks_total",
		Help: "Number of license status checks by derived status.",
	}, []string{"status"})
)
