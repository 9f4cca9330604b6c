// Package services содержит бизнес-логику лицензирования: проверку статуса,
// активацию планов и каталог тарифов.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/metrics"
	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

// ErrLicenseKeyUsed возвращается при попытке активировать уже использованный ключ.
var ErrLicenseKeyUsed = errors.New("license key already used")

// LicenseRepository описывает операции хранилища над лицензиями.
type LicenseRepository interface {
	// GetCurrentLicense возвращает последнюю запись лицензии пользователя.
	GetCurrentLicense(ctx context.Context, userUID string) (*models.License, error)
	// TouchLicenseUsage отмечает обращение к лицензии.
	TouchLicenseUsage(ctx context.Context, licenseID string) error
	// LicenseKeyUsed проверяет, активирован ли уже лицензионный ключ.
	LicenseKeyUsed(ctx context.Context, licenseKey string) (bool, error)
	// ActivateLicense сохраняет запись лицензии вместе со строкой журнала.
	ActivateLicense(ctx context.Context, lic models.License, entry models.LicenseHistoryEntry) (string, error)
	// ListLicenseHistory возвращает журнал действий пользователя.
	ListLicenseHistory(ctx context.Context, userUID string) ([]*models.LicenseHistoryEntry, error)
}

// PlanRepository описывает каталог тарифных планов.
type PlanRepository interface {
	// GetPlan возвращает тарифный план по ID.
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	// ListActivePlans возвращает активные тарифные планы.
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// LicenseService реализует проверку и активацию лицензий.
type LicenseService struct {
	repo  LicenseRepository
	plans PlanRepository
	cache Cache
	log   *slog.Logger
}

// NewLicenseService создает новый экземпляр LicenseService.
func NewLicenseService(repo LicenseRepository, plans PlanRepository, cache Cache, log *slog.Logger) *LicenseService {
	return &LicenseService{
		repo:  repo,
		plans: plans,
		cache: cache,
		log:   log,
	}
}

// Check выводит права пользователя на текущий момент. Отсутствие записи
// лицензии не считается ошибкой: возвращается истекший статус с нулевыми
// лимитами. Факт обращения отмечается в фоне и на результат не влияет.
func (s *LicenseService) Check(ctx context.Context, userUID string) (*models.LicenseInfo, error) {
	lic, err := s.repo.GetCurrentLicense(ctx, userUID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	info := entitlement.Derive(lic.Snapshot(), time.Now().UTC())
	metrics.LicenseChecks.WithLabelValues(string(info.Status)).Inc()

	result := &models.LicenseInfo{Info: info}
	if lic != nil {
		result.PlanName = lic.PlanType
		if plan := s.planName(ctx, lic); plan != "" {
			result.PlanName = plan
		}
		go s.touchUsage(lic.ID)
	}
	return result, nil
}

// Activate выдает пользователю лицензию по тарифному плану. Срок считается
// от истечения текущей лицензии, если она еще действует, иначе от текущего
// момента. additionalMonths добавляются к сроку плана.
func (s *LicenseService) Activate(ctx context.Context, userUID string, req models.DummyActivateLicense) (*models.LicenseInfo, error) {
	plan, err := s.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	if req.LicenseKey != "" {
		used, err := s.repo.LicenseKeyUsed(ctx, req.LicenseKey)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrLicenseKeyUsed
		}
	}

	now := time.Now().UTC()
	start := now
	action := models.LicenseActionActivation
	var previous *time.Time

	current, err := s.repo.GetCurrentLicense(ctx, userUID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if current != nil && !current.Blocked && current.ExpiryDate.After(now) {
		start = current.ExpiryDate
		action = models.LicenseActionRenewal
		previous = &current.ExpiryDate
	}
	expiry := start.AddDate(0, plan.DurationMonths+req.AdditionalMonths, 0)

	lic := models.License{
		UserUID:         userUID,
		PlanID:          &plan.ID,
		PlanType:        plan.Kind,
		Status:          entitlement.RecordActive,
		Active:          true,
		StartDate:       now,
		ExpiryDate:      expiry,
		ActivationDate:  &now,
		MaxUsers:        plan.MaxUsers,
		MaxTransactions: plan.MaxTransactions,
		MaxProducts:     plan.MaxProducts,
		Features:        plan.Features,
	}
	if req.LicenseKey != "" {
		lic.LicenseKey = &req.LicenseKey
	}
	entry := models.LicenseHistoryEntry{
		UserUID:      userUID,
		PlanID:       &plan.ID,
		Action:       action,
		PreviousDate: previous,
		NewDate:      &expiry,
	}
	if _, err := s.repo.ActivateLicense(ctx, lic, entry); err != nil {
		return nil, err
	}
	s.log.Info("activated license",
		slog.String("user_uid", userUID),
		slog.String("plan", plan.Name),
		slog.Time("expiry_date", expiry))

	info := entitlement.Derive(lic.Snapshot(), now)
	return &models.LicenseInfo{Info: info, PlanName: plan.Name}, nil
}

// ListPlans возвращает активные тарифные планы, используя кеш.
func (s *LicenseService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const cacheKey = "license:plans"
	var plans []*models.Plan
	found, err := s.cache.Get(cacheKey, &plans)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return plans, nil
	}
	plans, err = s.plans.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, plans, time.Hour); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// History возвращает журнал действий над лицензиями пользователя.
func (s *LicenseService) History(ctx context.Context, userUID string) ([]*models.LicenseHistoryEntry, error) {
	return s.repo.ListLicenseHistory(ctx, userUID)
}

func (s *LicenseService) touchUsage(licenseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.TouchLicenseUsage(ctx, licenseID); err != nil {
		s.log.Warn("failed to touch license usage",
			slog.String("license_id", licenseID), sl.Err(err))
	}
}

func (s *LicenseService) planName(ctx context.Context, lic *models.License) string {
	if lic.PlanID == nil {
		return ""
	}
	plan, err := s.plans.GetPlan(ctx, *lic.PlanID)
	if err != nil {
		s.log.Warn("failed to resolve plan name", sl.Err(err))
		return ""
	}
	return plan.Name
}
