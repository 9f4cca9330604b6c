// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/lib/jwt"
	"github.com/admin7club/financial-manager/internal/lib/password"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateLastSignIn отмечает время последнего входа пользователя.
	UpdateLastSignIn(ctx context.Context, uid string) error
}

// LicenseRepository описывает операции лицензирования, нужные при регистрации.
type LicenseRepository interface {
	// GetTrialPlan возвращает активный пробный тарифный план.
	GetTrialPlan(ctx context.Context) (*models.Plan, error)

	// ActivateLicense сохраняет запись лицензии вместе со строкой журнала.
	ActivateLicense(ctx context.Context, lic models.License, entry models.LicenseHistoryEntry) (string, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
// При регистрации пользователю автоматически выдается пробная лицензия.
type AuthService struct {
	users    UserRepository
	licenses LicenseRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, licenses LicenseRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		licenses: licenses,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной
// ролью "user" и пробной лицензией по активному пробному плану.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         "user", // дефолтная роль при регистрации
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	if err := s.grantTrialLicense(ctx, uid); err != nil {
		// Пользователь уже создан, без пробной лицензии он сможет
		// активировать платный план, поэтому регистрация не откатывается.
		s.log.Warn("failed to grant trial license", slog.String("user_uid", uid), sl.Err(err))
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", errors.New("invalid credentials")
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", err
	}
	if err := s.users.UpdateLastSignIn(ctx, user.UID); err != nil {
		s.log.Warn("failed to update last sign in", slog.String("user_uid", user.UID), sl.Err(err))
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Username: claims.Username,
		Role:     claims.Role,
		UID:      claims.UserUID,
	}
	return user, claims.Role, true, nil
}

func (s *AuthService) grantTrialLicense(ctx context.Context, userUID string) error {
	plan, err := s.licenses.GetTrialPlan(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, plan.TrialDays)
	lic := models.License{
		UserUID:         userUID,
		PlanID:          &plan.ID,
		PlanType:        plan.Kind,
		Status:          entitlement.RecordTrial,
		Active:          true,
		StartDate:       now,
		ExpiryDate:      expiry,
		ActivationDate:  &now,
		MaxUsers:        plan.MaxUsers,
		MaxTransactions: plan.MaxTransactions,
		MaxProducts:     plan.MaxProducts,
		Features:        plan.Features,
	}
	entry := models.LicenseHistoryEntry{
		UserUID: userUID,
		PlanID:  &plan.ID,
		Action:  models.LicenseActionTrial,
		NewDate: &expiry,
	}
	_, err = s.licenses.ActivateLicense(ctx, lic, entry)
	return err
}
