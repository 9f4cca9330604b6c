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
	"github.com/admin7club/financial-manager/internal/lib/jwt"
	"github.com/admin7club/financial-manager/internal/lib/password"
	"github.com/admin7club/financial-manager/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastSignIn(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type MockLicenseRepository struct {
	mock.Mock
}

func (m *MockLicenseRepository) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockLicenseRepository) ActivateLicense(ctx context.Context, lic models.License, entry models.LicenseHistoryEntry) (string, error) {
	args := m.Called(ctx, lic, entry)
	return args.String(0), args.Error(1)
}

var (
	_ UserRepository    = (*MockUserRepository)(nil)
	_ LicenseRepository = (*MockLicenseRepository)(nil)
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(users UserRepository, licenses LicenseRepository) *AuthService {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(users, licenses, maker, newNoopLogger())
}

func trialPlan() *models.Plan {
	return &models.Plan{
		ID:              "plan-trial",
		Name:            "Trial",
		Kind:            "trial",
		TrialDays:       14,
		MaxUsers:        1,
		MaxTransactions: 50,
		MaxProducts:     10,
		Active:          true,
	}
}

func TestRegister_GrantsTrialLicense(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockLicenses := new(MockLicenseRepository)

	mockUsers.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "testuser" && u.Role == "user" && u.PasswordHash != "password123"
	})).Return("user-uid-1", nil).Once()
	mockLicenses.On("GetTrialPlan", mock.Anything).Return(trialPlan(), nil).Once()
	mockLicenses.On("ActivateLicense", mock.Anything, mock.MatchedBy(func(lic models.License) bool {
		return lic.UserUID == "user-uid-1" && lic.Status == entitlement.RecordTrial
	}), mock.MatchedBy(func(entry models.LicenseHistoryEntry) bool {
		return entry.Action == models.LicenseActionTrial
	})).Return("lic-1", nil).Once()

	service := newService(mockUsers, mockLicenses)
	uid, err := service.Register(context.Background(), "test@example.com", "testuser", "password123")

	require.NoError(t, err)
	assert.Equal(t, "user-uid-1", uid)
	mockLicenses.AssertExpectations(t)
}

func TestRegister_TrialFailureDoesNotRollBack(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockLicenses := new(MockLicenseRepository)

	mockUsers.On("RegisterUser", mock.Anything, mock.Anything).Return("user-uid-1", nil).Once()
	mockLicenses.On("GetTrialPlan", mock.Anything).Return(nil, assert.AnError).Once()

	service := newService(mockUsers, mockLicenses)
	uid, err := service.Register(context.Background(), "test@example.com", "testuser", "password123")

	// Регистрация считается успешной даже без пробной лицензии.
	require.NoError(t, err)
	assert.Equal(t, "user-uid-1", uid)
}

func TestLogin_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockLicenses := new(MockLicenseRepository)

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	user := &models.User{
		UID:          "user-uid-1",
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         "user",
	}
	mockUsers.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
	mockUsers.On("UpdateLastSignIn", mock.Anything, "user-uid-1").Return(nil).Once()

	service := newService(mockUsers, mockLicenses)
	token, role, err := service.Login(context.Background(), "testuser", "password123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user", role)
	mockUsers.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockLicenses := new(MockLicenseRepository)

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	user := &models.User{
		UID:          "user-uid-1",
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         "user",
	}
	mockUsers.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()

	service := newService(mockUsers, mockLicenses)
	_, _, err = service.Login(context.Background(), "testuser", "wrongpassword")

	require.Error(t, err)
	mockUsers.AssertNotCalled(t, "UpdateLastSignIn")
}

func TestValidateToken_RoundTrip(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockLicenses := new(MockLicenseRepository)

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	user := &models.User{
		UID:          "user-uid-1",
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         "admin",
	}
	mockUsers.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
	mockUsers.On("UpdateLastSignIn", mock.Anything, "user-uid-1").Return(nil).Once()

	service := newService(mockUsers, mockLicenses)
	token, _, err := service.Login(context.Background(), "testuser", "password123")
	require.NoError(t, err)

	parsed, role, valid, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "testuser", parsed.Username)
	assert.Equal(t, "user-uid-1", parsed.UID)
}

func TestValidateToken_Garbage(t *testing.T) {
	service := newService(new(MockUserRepository), new(MockLicenseRepository))

	_, _, valid, err := service.ValidateToken(context.Background(), "not-a-token")

	require.Error(t, err)
	assert.False(t, valid)
}
