package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

type MockLicenseRepository struct {
	mock.Mock
}

func (m *MockLicenseRepository) GetCurrentLicense(ctx context.Context, userUID string) (*models.License, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *MockLicenseRepository) TouchLicenseUsage(ctx context.Context, licenseID string) error {
	args := m.Called(ctx, licenseID)
	return args.Error(0)
}

func (m *MockLicenseRepository) LicenseKeyUsed(ctx context.Context, licenseKey string) (bool, error) {
	args := m.Called(ctx, licenseKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockLicenseRepository) ActivateLicense(ctx context.Context, lic models.License, entry models.LicenseHistoryEntry) (string, error) {
	args := m.Called(ctx, lic, entry)
	return args.String(0), args.Error(1)
}

func (m *MockLicenseRepository) ListLicenseHistory(ctx context.Context, userUID string) ([]*models.LicenseHistoryEntry, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LicenseHistoryEntry), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

var (
	_ LicenseRepository = (*MockLicenseRepository)(nil)
	_ PlanRepository    = (*MockPlanRepository)(nil)
	_ Cache             = (*MockCache)(nil)
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func proPlan() *models.Plan {
	return &models.Plan{
		ID:              "plan-pro",
		Name:            "Pro",
		Kind:            "paid",
		DurationMonths:  12,
		PriceBRL:        499,
		MaxUsers:        5,
		MaxTransactions: entitlement.Unlimited,
		MaxProducts:     500,
		Features: map[entitlement.Feature]bool{
			entitlement.FeatureReports: true,
		},
		Active: true,
	}
}

func TestCheck_ActiveLicense(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	planID := "plan-pro"
	lic := &models.License{
		ID:              "lic-1",
		UserUID:         "user-1",
		PlanID:          &planID,
		PlanType:        "paid",
		Status:          entitlement.RecordActive,
		ExpiryDate:      time.Now().UTC().AddDate(0, 6, 0),
		MaxUsers:        5,
		MaxTransactions: 1000,
		MaxProducts:     200,
	}

	mockRepo.On("GetCurrentLicense", mock.Anything, "user-1").Return(lic, nil).Once()
	mockPlans.On("GetPlan", mock.Anything, "plan-pro").Return(proPlan(), nil).Once()
	// Отметка использования уходит в фоне и может не успеть до конца теста.
	mockRepo.On("TouchLicenseUsage", mock.Anything, "lic-1").Return(nil).Maybe()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	info, err := service.Check(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusActive, info.Status)
	assert.Equal(t, "Pro", info.PlanName)
	assert.Equal(t, 1000, info.MaxTransactions)
}

func TestCheck_NoLicenseFailsClosed(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	mockRepo.On("GetCurrentLicense", mock.Anything, "user-1").
		Return(nil, repository.ErrNotFound).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	info, err := service.Check(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusExpired, info.Status)
	assert.Equal(t, 0, info.MaxTransactions)
	assert.False(t, info.HasFeature(entitlement.FeatureReports))
	mockRepo.AssertNotCalled(t, "TouchLicenseUsage")
}

func TestCheck_RepositoryError(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	mockRepo.On("GetCurrentLicense", mock.Anything, "user-1").
		Return(nil, assert.AnError).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	_, err := service.Check(context.Background(), "user-1")

	require.Error(t, err)
}

func TestActivate_FreshActivation(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	mockPlans.On("GetPlan", mock.Anything, "plan-pro").Return(proPlan(), nil).Once()
	mockRepo.On("GetCurrentLicense", mock.Anything, "user-1").
		Return(nil, repository.ErrNotFound).Once()
	mockRepo.On("ActivateLicense", mock.Anything, mock.MatchedBy(func(lic models.License) bool {
		return lic.UserUID == "user-1" &&
			lic.Status == entitlement.RecordActive &&
			lic.MaxTransactions == entitlement.Unlimited
	}), mock.MatchedBy(func(entry models.LicenseHistoryEntry) bool {
		return entry.Action == models.LicenseActionActivation && entry.PreviousDate == nil
	})).Return("lic-1", nil).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	info, err := service.Activate(context.Background(), "user-1", models.DummyActivateLicense{
		PlanID: "plan-pro",
	})

	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusActive, info.Status)
	assert.Equal(t, "Pro", info.PlanName)
	mockRepo.AssertExpectations(t)
}

func TestActivate_RenewalExtendsFromCurrentExpiry(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	currentExpiry := time.Now().UTC().AddDate(0, 2, 0)
	current := &models.License{
		ID:         "lic-1",
		UserUID:    "user-1",
		Status:     entitlement.RecordActive,
		ExpiryDate: currentExpiry,
	}

	mockPlans.On("GetPlan", mock.Anything, "plan-pro").Return(proPlan(), nil).Once()
	mockRepo.On("GetCurrentLicense", mock.Anything, "user-1").Return(current, nil).Once()
	mockRepo.On("ActivateLicense", mock.Anything, mock.MatchedBy(func(lic models.License) bool {
		return lic.ExpiryDate.Equal(currentExpiry.AddDate(0, 12, 0))
	}), mock.MatchedBy(func(entry models.LicenseHistoryEntry) bool {
		return entry.Action == models.LicenseActionRenewal &&
			entry.PreviousDate != nil && entry.PreviousDate.Equal(currentExpiry)
	})).Return("lic-2", nil).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	_, err := service.Activate(context.Background(), "user-1", models.DummyActivateLicense{
		PlanID: "plan-pro",
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestActivate_UsedLicenseKey(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	mockPlans.On("GetPlan", mock.Anything, "plan-pro").Return(proPlan(), nil).Once()
	mockRepo.On("LicenseKeyUsed", mock.Anything, "KEY-123").Return(true, nil).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	_, err := service.Activate(context.Background(), "user-1", models.DummyActivateLicense{
		PlanID:     "plan-pro",
		LicenseKey: "KEY-123",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLicenseKeyUsed)
	mockRepo.AssertNotCalled(t, "ActivateLicense")
}

func TestListPlans_CacheHit(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	mockCache.On("Get", "license:plans", mock.Anything).Return(true, nil).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	_, err := service.ListPlans(context.Background())

	require.NoError(t, err)
	mockPlans.AssertNotCalled(t, "ListActivePlans")
}

func TestListPlans_CacheMiss(t *testing.T) {
	mockRepo := new(MockLicenseRepository)
	mockPlans := new(MockPlanRepository)
	mockCache := new(MockCache)

	plans := []*models.Plan{proPlan()}
	mockCache.On("Get", "license:plans", mock.Anything).Return(false, nil).Once()
	mockPlans.On("ListActivePlans", mock.Anything).Return(plans, nil).Once()
	mockCache.On("Set", "license:plans", plans, time.Hour).Return(nil).Once()

	service := NewLicenseService(mockRepo, mockPlans, mockCache, newNoopLogger())
	got, err := service.ListPlans(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 1)
	mockCache.AssertExpectations(t)
}
