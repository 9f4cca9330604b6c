package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/admin7club/financial-manager/internal/models"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

type MockSweeper struct {
	mock.Mock
}

var _ RecurrenceSweeper = (*MockSweeper)(nil)

func (m *MockSweeper) GenerateDue(ctx context.Context, today time.Time) (recurrenceservice.SweepResult, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(recurrenceservice.SweepResult), args.Error(1)
}

type MockLicenseRepository struct {
	mock.Mock
}

var _ LicenseRepository = (*MockLicenseRepository)(nil)

func (m *MockLicenseRepository) FindLicensesExpiringSoon(ctx context.Context, now time.Time, days int) ([]repository.ExpiringLicense, error) {
	args := m.Called(ctx, now, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ExpiringLicense), args.Error(1)
}

type MockRateRepository struct {
	mock.Mock
}

var _ RateRepository = (*MockRateRepository)(nil)

func (m *MockRateRepository) UpsertExchangeRate(ctx context.Context, rate models.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

type MockRateSource struct {
	mock.Mock
}

var _ RateSource = (*MockRateSource)(nil)

func (m *MockRateSource) FetchRates(ctx context.Context, currencies []string) (map[string]float64, error) {
	args := m.Called(ctx, currencies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(sweeper *MockSweeper, licenses *MockLicenseRepository, rates *MockRateRepository, source *MockRateSource) *SchedulerService {
	return NewSchedulerService(sweeper, licenses, rates, source, newNoopLogger())
}

func TestRunRecurrenceSweep_CallsSweeper(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("GenerateDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(recurrenceservice.SweepResult{Generated: 2}, nil).Once()
	service := newService(sweeper, new(MockLicenseRepository), new(MockRateRepository), new(MockRateSource))

	service.runRecurrenceSweep(context.Background())

	sweeper.AssertExpectations(t)
}

func TestRunRecurrenceSweep_SweeperErrorOnlyLogged(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("GenerateDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(recurrenceservice.SweepResult{}, errors.New("db error")).Once()
	service := newService(sweeper, new(MockLicenseRepository), new(MockRateRepository), new(MockRateSource))

	service.runRecurrenceSweep(context.Background())

	sweeper.AssertExpectations(t)
}

func TestNotifyExpiringLicenses_NoLicensesNoPublish(t *testing.T) {
	licenses := new(MockLicenseRepository)
	licenses.On("FindLicensesExpiringSoon", mock.Anything, mock.AnythingOfType("time.Time"), expiringNoticeDays).
		Return([]repository.ExpiringLicense{}, nil).Once()
	service := newService(new(MockSweeper), licenses, new(MockRateRepository), new(MockRateSource))

	// Канал nil: при пустой выборке публикация не выполняется.
	service.notifyExpiringLicenses(context.Background(), nil)

	licenses.AssertExpectations(t)
}

func TestNotifyExpiringLicenses_RepositoryErrorOnlyLogged(t *testing.T) {
	licenses := new(MockLicenseRepository)
	licenses.On("FindLicensesExpiringSoon", mock.Anything, mock.AnythingOfType("time.Time"), expiringNoticeDays).
		Return(nil, errors.New("db error")).Once()
	service := newService(new(MockSweeper), licenses, new(MockRateRepository), new(MockRateSource))

	service.notifyExpiringLicenses(context.Background(), nil)

	licenses.AssertExpectations(t)
}

func TestRefreshRates_StoresFetchedRates(t *testing.T) {
	source := new(MockRateSource)
	source.On("FetchRates", mock.Anything, refreshedCurrencies).
		Return(map[string]float64{"USD": 5.43, "EUR": 5.91}, nil).Once()

	rates := new(MockRateRepository)
	rates.On("UpsertExchangeRate", mock.Anything, mock.MatchedBy(func(r models.ExchangeRate) bool {
		return r.Currency == "USD" && r.RateBRL == 5.43 && r.Source == "exchangerate-api"
	})).Return(nil).Once()
	rates.On("UpsertExchangeRate", mock.Anything, mock.MatchedBy(func(r models.ExchangeRate) bool {
		return r.Currency == "EUR" && r.RateBRL == 5.91
	})).Return(nil).Once()

	service := newService(new(MockSweeper), new(MockLicenseRepository), rates, source)

	service.refreshRates(context.Background())

	source.AssertExpectations(t)
	rates.AssertExpectations(t)
}

func TestRefreshRates_FetchErrorSkipsStore(t *testing.T) {
	source := new(MockRateSource)
	source.On("FetchRates", mock.Anything, refreshedCurrencies).
		Return(nil, errors.New("api unavailable")).Once()
	rates := new(MockRateRepository)

	service := newService(new(MockSweeper), new(MockLicenseRepository), rates, source)

	service.refreshRates(context.Background())

	source.AssertExpectations(t)
	rates.AssertNotCalled(t, "UpsertExchangeRate")
}

func TestRefreshRates_StoreErrorContinues(t *testing.T) {
	source := new(MockRateSource)
	source.On("FetchRates", mock.Anything, refreshedCurrencies).
		Return(map[string]float64{"USD": 5.43, "EUR": 5.91}, nil).Once()

	rates := new(MockRateRepository)
	rates.On("UpsertExchangeRate", mock.Anything, mock.AnythingOfType("models.ExchangeRate")).
		Return(errors.New("db error")).Twice()

	service := newService(new(MockSweeper), new(MockLicenseRepository), rates, source)

	service.refreshRates(context.Background())

	rates.AssertExpectations(t)
}

func TestNewSchedulerService(t *testing.T) {
	sweeper := new(MockSweeper)
	licenses := new(MockLicenseRepository)
	rates := new(MockRateRepository)
	source := new(MockRateSource)
	logger := newNoopLogger()

	service := NewSchedulerService(sweeper, licenses, rates, source, logger)

	assert.NotNil(t, service)
	assert.Equal(t, logger, service.log)
}
