// Package services содержит бизнес-логику для управления финансовыми записями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/models"
)

// ErrLimitReached возвращается, когда лимит записей тарифного плана исчерпан.
var ErrLimitReached = errors.New("transaction limit reached for current plan")

// TransactionRepository определяет методы для работы с записями в хранилище.
type TransactionRepository interface {
	// CreateTransaction добавляет новую запись и возвращает её ID.
	CreateTransaction(ctx context.Context, tr models.Transaction) (string, error)
	// ReadTransaction возвращает запись по ID.
	ReadTransaction(ctx context.Context, id, userUID string) (*models.Transaction, error)
	// UpdateTransaction обновляет запись по ID.
	UpdateTransaction(ctx context.Context, tr models.Transaction, id, userUID string) (int, error)
	// RemoveTransaction удаляет запись по ID и возвращает количество удалённых.
	RemoveTransaction(ctx context.Context, id, userUID string) (int, error)
	// ListTransactions возвращает записи пользователя с пагинацией.
	ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error)
	// CountTransactions возвращает количество записей пользователя.
	CountTransactions(ctx context.Context, userUID string) (int, error)
	// TransactionStats считает агрегаты за период.
	TransactionStats(ctx context.Context, userUID string, start, end time.Time) (*models.TransactionStats, error)
}

// LicenseChecker выводит права пользователя для проверки лимитов.
type LicenseChecker interface {
	Check(ctx context.Context, userUID string) (*models.LicenseInfo, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TransactionService реализует бизнес-логику записей, включая кеширование
// и проверку лимита тарифного плана при создании.
type TransactionService struct {
	repo    TransactionRepository
	license LicenseChecker
	cache   Cache
	log     *slog.Logger
}

// NewTransactionService создает новый экземпляр TransactionService.
func NewTransactionService(repo TransactionRepository, license LicenseChecker, cache Cache, log *slog.Logger) *TransactionService {
	return &TransactionService{
		repo:    repo,
		license: license,
		cache:   cache,
		log:     log,
	}
}

// Create создает новую финансовую запись, предварительно проверив лимит
// тарифного плана, кеширует её и возвращает ID.
func (s *TransactionService) Create(ctx context.Context, userUID string, req models.DummyTransaction) (string, error) {
	info, err := s.license.Check(ctx, userUID)
	if err != nil {
		return "", err
	}
	count, err := s.repo.CountTransactions(ctx, userUID)
	if err != nil {
		return "", err
	}
	if !info.WithinLimit(entitlement.LimitTransactions, count) {
		return "", ErrLimitReached
	}

	tr, err := buildTransaction(userUID, req)
	if err != nil {
		return "", err
	}

	id, err := s.repo.CreateTransaction(ctx, *tr)
	if err != nil {
		return "", err
	}
	s.log.Info("created new transaction", slog.String("id", id))

	tr.ID = id
	cacheKey := fmt.Sprintf("transaction:%s", id)
	if err := s.cache.Set(cacheKey, tr, time.Hour); err != nil {
		s.log.Warn("failed to cache transaction", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return id, nil
}

// Read возвращает запись по ID, используя кеш или репозиторий.
func (s *TransactionService) Read(ctx context.Context, id, userUID string) (*models.Transaction, error) {
	var result *models.Transaction
	cacheKey := fmt.Sprintf("transaction:%s", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found && result.UserUID == userUID {
		return result, nil
	}
	result, err = s.repo.ReadTransaction(ctx, id, userUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Update обновляет запись и обновляет кеш.
func (s *TransactionService) Update(ctx context.Context, req models.DummyTransaction, id, userUID string) (int, error) {
	tr, err := buildTransaction(userUID, req)
	if err != nil {
		return 0, err
	}
	res, err := s.repo.UpdateTransaction(ctx, *tr, id, userUID)
	if err != nil {
		return 0, err
	}
	s.log.Info("updated transaction in storage", slog.String("id", id))

	cacheKey := fmt.Sprintf("transaction:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return res, nil
}

// Remove удаляет запись по ID и инвалидирует кеш.
func (s *TransactionService) Remove(ctx context.Context, id, userUID string) (int, error) {
	cacheKey := fmt.Sprintf("transaction:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return s.repo.RemoveTransaction(ctx, id, userUID)
}

// List возвращает записи пользователя с пагинацией.
func (s *TransactionService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	return s.repo.ListTransactions(ctx, userUID, limit, offset)
}

// Stats считает агрегаты по записям пользователя за период.
func (s *TransactionService) Stats(ctx context.Context, userUID string, req models.DummyStatsFilter) (*models.TransactionStats, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date must not be earlier than start date")
	}
	return s.repo.TransactionStats(ctx, userUID, start, end)
}

func buildTransaction(userUID string, req models.DummyTransaction) (*models.Transaction, error) {
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due date: %w", err)
	}
	status := req.Status
	if status == "" {
		status = models.TransactionPending
	}
	tr := models.Transaction{
		UserUID:     userUID,
		Kind:        req.Kind,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
		Status:      status,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
	}
	if req.PaymentDate != "" {
		paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment date: %w", err)
		}
		tr.PaymentDate = &paymentDate
	}
	tr.CostCenterID = optional(req.CostCenterID)
	tr.SupplierID = optional(req.SupplierID)
	tr.DocumentNumber = optional(req.DocumentNumber)
	tr.Notes = optional(req.Notes)
	return &tr, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
