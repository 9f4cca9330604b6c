// Package services содержит фоновые задачи планировщика: обход правил
// повторения, уведомления об истекающих лицензиях и обновление курсов валют.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/admin7club/financial-manager/internal/lib/rabbitmq"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
	"github.com/admin7club/financial-manager/internal/storage/repository"
	"github.com/streadway/amqp"
)

// expiringNoticeDays — за сколько дней до истечения отправляется уведомление.
const expiringNoticeDays = 7

// refreshedCurrencies — валюты, курсы которых обновляет планировщик.
var refreshedCurrencies = []string{"USD", "EUR"}

// RecurrenceSweeper обходит правила повторения с наступившей датой.
type RecurrenceSweeper interface {
	GenerateDue(ctx context.Context, today time.Time) (recurrenceservice.SweepResult, error)
}

// LicenseRepository находит истекающие лицензии для уведомлений.
type LicenseRepository interface {
	FindLicensesExpiringSoon(ctx context.Context, now time.Time, days int) ([]repository.ExpiringLicense, error)
}

// RateRepository сохраняет курсы валют.
type RateRepository interface {
	UpsertExchangeRate(ctx context.Context, rate models.ExchangeRate) error
}

// RateSource запрашивает курсы валют у внешнего API.
type RateSource interface {
	FetchRates(ctx context.Context, currencies []string) (map[string]float64, error)
}

// SchedulerService запускает периодические задачи.
type SchedulerService struct {
	sweeper  RecurrenceSweeper
	licenses LicenseRepository
	rates    RateRepository
	source   RateSource
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(sweeper RecurrenceSweeper, licenses LicenseRepository, rates RateRepository, source RateSource, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		sweeper:  sweeper,
		licenses: licenses,
		rates:    rates,
		source:   source,
		log:      log,
	}
}

// RunRecurrenceSweep запускает обход правил повторения с заданным интервалом.
func (s *SchedulerService) RunRecurrenceSweep(ctx context.Context, interval time.Duration) {
	s.runRecurrenceSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runRecurrenceSweep(ctx)
		}
	}
}

func (s *SchedulerService) runRecurrenceSweep(ctx context.Context) {
	s.log.Info("starting recurrence sweep")
	if _, err := s.sweeper.GenerateDue(ctx, time.Now().UTC()); err != nil {
		s.log.Error("recurrence sweep failed", sl.Err(err))
	}
}

// RunExpiringLicenseNotifier периодически ищет истекающие лицензии и
// публикует уведомления в очередь.
func (s *SchedulerService) RunExpiringLicenseNotifier(ctx context.Context, channel *amqp.Channel, interval time.Duration) {
	s.notifyExpiringLicenses(ctx, channel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.notifyExpiringLicenses(ctx, channel)
		}
	}
}

func (s *SchedulerService) notifyExpiringLicenses(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find expiring licenses")
	now := time.Now().UTC()
	licenses, err := s.licenses.FindLicensesExpiringSoon(ctx, now, expiringNoticeDays)
	if err != nil {
		s.log.Error("failed to find expiring licenses", sl.Err(err))
		return
	}
	if len(licenses) == 0 {
		s.log.Info("no expiring licenses found")
		return
	}
	s.log.Info("found expiring licenses", "count", len(licenses))
	for _, lic := range licenses {
		days := int(lic.ExpiryDate.Sub(now).Hours() / 24)
		info := models.EntryInfo{
			Email:         lic.Email,
			Username:      lic.Username,
			PlanName:      lic.PlanType,
			ExpiryDate:    lic.ExpiryDate,
			DaysRemaining: days,
		}
		err = rabbitmq.PublishMessage(channel, "notifications", rabbitmq.LicenseExpiringRoutingKey, info)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

// RunRatesRefresh периодически обновляет курсы валют.
func (s *SchedulerService) RunRatesRefresh(ctx context.Context, interval time.Duration) {
	s.refreshRates(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshRates(ctx)
		}
	}
}

func (s *SchedulerService) refreshRates(ctx context.Context) {
	s.log.Info("starting exchange rates refresh")
	rates, err := s.source.FetchRates(ctx, refreshedCurrencies)
	if err != nil {
		s.log.Error("failed to fetch exchange rates", sl.Err(err))
		return
	}
	for currency, rate := range rates {
		err := s.rates.UpsertExchangeRate(ctx, models.ExchangeRate{
			Currency: currency,
			RateBRL:  rate,
			Source:   "exchangerate-api",
		})
		if err != nil {
			s.log.Error("failed to store exchange rate",
				slog.String("currency", currency), sl.Err(err))
			continue
		}
		s.log.Info("exchange rate updated",
			slog.String("currency", currency),
			slog.Float64("rate_brl", rate))
	}
}
