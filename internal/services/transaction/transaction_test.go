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
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTransaction(ctx context.Context, tr models.Transaction) (string, error) {
	args := m.Called(ctx, tr)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ReadTransaction(ctx context.Context, id, userUID string) (*models.Transaction, error) {
	args := m.Called(ctx, id, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockRepository) UpdateTransaction(ctx context.Context, tr models.Transaction, id, userUID string) (int, error) {
	args := m.Called(ctx, tr, id, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) RemoveTransaction(ctx context.Context, id, userUID string) (int, error) {
	args := m.Called(ctx, id, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockRepository) CountTransactions(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) TransactionStats(ctx context.Context, userUID string, start, end time.Time) (*models.TransactionStats, error) {
	args := m.Called(ctx, userUID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionStats), args.Error(1)
}

type MockLicenseChecker struct {
	mock.Mock
}

func (m *MockLicenseChecker) Check(ctx context.Context, userUID string) (*models.LicenseInfo, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LicenseInfo), args.Error(1)
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
	_ TransactionRepository = (*MockRepository)(nil)
	_ LicenseChecker        = (*MockLicenseChecker)(nil)
	_ Cache                 = (*MockCache)(nil)
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func licenseInfo(maxTransactions int) *models.LicenseInfo {
	return &models.LicenseInfo{
		Info: entitlement.Info{
			Status:          entitlement.StatusActive,
			MaxTransactions: maxTransactions,
		},
		PlanName: "Pro",
	}
}

func validRequest() models.DummyTransaction {
	return models.DummyTransaction{
		Kind:        "expense",
		Description: "Оплата аренды",
		Amount:      1500,
		DueDate:     "2024-06-10",
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	}
}

func TestCreate_Success(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	mockLicense.On("Check", mock.Anything, "user-1").Return(licenseInfo(100), nil).Once()
	mockRepo.On("CountTransactions", mock.Anything, "user-1").Return(10, nil).Once()
	mockRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tr models.Transaction) bool {
		return tr.UserUID == "user-1" &&
			tr.Status == models.TransactionPending &&
			tr.DueDate.Equal(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC))
	})).Return("tx-1", nil).Once()
	mockCache.On("Set", "transaction:tx-1", mock.Anything, time.Hour).Return(nil).Once()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	id, err := service.Create(context.Background(), "user-1", validRequest())

	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)
	mockRepo.AssertExpectations(t)
}

func TestCreate_LimitReached(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	mockLicense.On("Check", mock.Anything, "user-1").Return(licenseInfo(100), nil).Once()
	mockRepo.On("CountTransactions", mock.Anything, "user-1").Return(100, nil).Once()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	_, err := service.Create(context.Background(), "user-1", validRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitReached)
	mockRepo.AssertNotCalled(t, "CreateTransaction")
}

func TestCreate_UnlimitedPlan(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	mockLicense.On("Check", mock.Anything, "user-1").
		Return(licenseInfo(entitlement.Unlimited), nil).Once()
	mockRepo.On("CountTransactions", mock.Anything, "user-1").Return(1_000_000, nil).Once()
	mockRepo.On("CreateTransaction", mock.Anything, mock.Anything).Return("tx-1", nil).Once()
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	_, err := service.Create(context.Background(), "user-1", validRequest())

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreate_ExpiredLicenseZeroLimit(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	expired := &models.LicenseInfo{Info: entitlement.Info{Status: entitlement.StatusExpired}}
	mockLicense.On("Check", mock.Anything, "user-1").Return(expired, nil).Once()
	mockRepo.On("CountTransactions", mock.Anything, "user-1").Return(0, nil).Once()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	_, err := service.Create(context.Background(), "user-1", validRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitReached)
}

func TestRead_CacheHitChecksOwnership(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	// Кеш вернул запись другого пользователя: обращаемся к хранилищу.
	mockCache.On("Get", "transaction:tx-1", mock.Anything).
		Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.Transaction)
			*ptr = &models.Transaction{ID: "tx-1", UserUID: "other-user"}
		}).Return(true, nil).Once()
	mockRepo.On("ReadTransaction", mock.Anything, "tx-1", "user-1").
		Return(&models.Transaction{ID: "tx-1", UserUID: "user-1"}, nil).Once()
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	tr, err := service.Read(context.Background(), "tx-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", tr.UserUID)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	mockRepo.On("UpdateTransaction", mock.Anything, mock.Anything, "tx-1", "user-1").
		Return(1, nil).Once()
	mockCache.On("Invalidate", "transaction:tx-1").Return(nil).Once()

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	count, err := service.Update(context.Background(), validRequest(), "tx-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	mockCache.AssertExpectations(t)
}

func TestStats_RejectsEndBeforeStart(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLicense := new(MockLicenseChecker)
	mockCache := new(MockCache)

	service := NewTransactionService(mockRepo, mockLicense, mockCache, newNoopLogger())
	_, err := service.Stats(context.Background(), "user-1", models.DummyStatsFilter{
		StartDate: "2024-06-30",
		EndDate:   "2024-06-01",
	})

	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "TransactionStats")
}
