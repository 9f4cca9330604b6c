// Package services содержит бизнес-логику правил повторения: управление
// правилами и обход, генерирующий финансовые записи по расписанию.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admin7club/financial-manager/internal/lib/recurrence"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/metrics"
	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

// RecurrenceRepository определяет методы для работы с правилами в хранилище.
type RecurrenceRepository interface {
	// CreateRecurrence добавляет новое правило и возвращает его ID.
	CreateRecurrence(ctx context.Context, rec models.Recurrence) (string, error)
	// ReadRecurrence возвращает правило по ID.
	ReadRecurrence(ctx context.Context, id, userUID string) (*models.Recurrence, error)
	// UpdateRecurrence обновляет редактируемые поля правила.
	UpdateRecurrence(ctx context.Context, rec models.Recurrence, id, userUID string) (int, error)
	// RemoveRecurrence удаляет правило по ID.
	RemoveRecurrence(ctx context.Context, id, userUID string) (int, error)
	// ListRecurrences возвращает все правила пользователя.
	ListRecurrences(ctx context.Context, userUID string) ([]*models.Recurrence, error)
	// SetRecurrenceActive включает или выключает правило.
	SetRecurrenceActive(ctx context.Context, id, userUID string, active bool) (int, error)
	// ListDueRecurrences возвращает активные правила с наступившей датой.
	ListDueRecurrences(ctx context.Context, today string) ([]*models.Recurrence, error)
	// ApplyGeneration атомарно фиксирует срабатывание правила.
	ApplyGeneration(ctx context.Context, gen models.Generation) (string, error)
	// DeactivateRecurrence выключает правило.
	DeactivateRecurrence(ctx context.Context, id string) error
}

// SweepResult — итог одного обхода правил.
type SweepResult struct {
	Evaluated   int
	Generated   int
	Deactivated int
	Skipped     int
	Failed      int
}

// RecurrenceService реализует управление правилами и их обход.
type RecurrenceService struct {
	repo RecurrenceRepository
	log  *slog.Logger
}

// NewRecurrenceService создает новый экземпляр RecurrenceService.
func NewRecurrenceService(repo RecurrenceRepository, log *slog.Logger) *RecurrenceService {
	return &RecurrenceService{
		repo: repo,
		log:  log,
	}
}

// Create создает новое правило. Правило рождается активным, следующая дата
// не задана: первая генерация произойдет от начальной даты.
func (s *RecurrenceService) Create(ctx context.Context, userUID string, req models.DummyRecurrence) (string, error) {
	rec, err := buildRecurrence(userUID, req)
	if err != nil {
		return "", err
	}
	rec.Active = true
	id, err := s.repo.CreateRecurrence(ctx, *rec)
	if err != nil {
		return "", err
	}
	s.log.Info("created new recurrence", slog.String("id", id))
	return id, nil
}

// Read возвращает правило по ID.
func (s *RecurrenceService) Read(ctx context.Context, id, userUID string) (*models.Recurrence, error) {
	return s.repo.ReadRecurrence(ctx, id, userUID)
}

// Update обновляет редактируемые поля правила. Поля расписания при этом
// не сбрасываются: смена частоты действует со следующего срабатывания.
func (s *RecurrenceService) Update(ctx context.Context, req models.DummyRecurrence, id, userUID string) (int, error) {
	rec, err := buildRecurrence(userUID, req)
	if err != nil {
		return 0, err
	}
	res, err := s.repo.UpdateRecurrence(ctx, *rec, id, userUID)
	if err != nil {
		return 0, err
	}
	s.log.Info("updated recurrence in storage", slog.String("id", id))
	return res, nil
}

// Remove удаляет правило. Сгенерированные записи остаются.
func (s *RecurrenceService) Remove(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveRecurrence(ctx, id, userUID)
}

// List возвращает все правила пользователя.
func (s *RecurrenceService) List(ctx context.Context, userUID string) ([]*models.Recurrence, error) {
	return s.repo.ListRecurrences(ctx, userUID)
}

// SetActive включает или выключает правило по запросу пользователя.
func (s *RecurrenceService) SetActive(ctx context.Context, id, userUID string, active bool) (int, error) {
	return s.repo.SetRecurrenceActive(ctx, id, userUID, active)
}

// GenerateDue обходит правила с наступившей датой и генерирует записи.
// Каждое правило прокручивается до текущей даты: пропущенные периоды
// дают по одной записи каждый. Ошибка одного правила не прерывает обход.
func (s *RecurrenceService) GenerateDue(ctx context.Context, today time.Time) (SweepResult, error) {
	var result SweepResult
	rules, err := s.repo.ListDueRecurrences(ctx, today.Format("2006-01-02"))
	if err != nil {
		return result, err
	}
	s.log.Info("recurrence sweep started", slog.Int("due_rules", len(rules)))

	for _, rule := range rules {
		s.sweepRule(ctx, rule, today, &result)
	}
	s.log.Info("recurrence sweep finished",
		slog.Int("evaluated", result.Evaluated),
		slog.Int("generated", result.Generated),
		slog.Int("deactivated", result.Deactivated),
		slog.Int("failed", result.Failed))
	return result, nil
}

// sweepRule прокручивает одно правило до today. Вся мутация идет через
// ApplyGeneration, поэтому состояние в памяти обновляется вслед за базой.
func (s *RecurrenceService) sweepRule(ctx context.Context, rule *models.Recurrence, today time.Time, result *SweepResult) {
	for {
		result.Evaluated++
		decision, err := recurrence.Evaluate(rule.Schedule(), today)
		if err != nil {
			if errors.Is(err, recurrence.ErrUnknownFrequency) {
				metrics.MisconfiguredRecurrences.Inc()
			}
			s.log.Error("failed to evaluate recurrence",
				slog.String("id", rule.ID), sl.Err(err))
			result.Failed++
			return
		}
		if decision.Deactivate && !decision.Fire {
			if err := s.repo.DeactivateRecurrence(ctx, rule.ID); err != nil {
				s.log.Error("failed to deactivate recurrence",
					slog.String("id", rule.ID), sl.Err(err))
				result.Failed++
				return
			}
			result.Deactivated++
			return
		}
		if !decision.Fire {
			result.Skipped++
			return
		}

		gen := models.Generation{
			RecurrenceID: rule.ID,
			Transaction:  generatedTransaction(rule, decision.DueDate),
			PrevNextDate: rule.NextDate,
			NextDate:     decision.NextDate,
		}
		id, err := s.repo.ApplyGeneration(ctx, gen)
		if err != nil {
			if errors.Is(err, repository.ErrStaleRecurrence) {
				// Правило уже продвинуто параллельным обходом, запись
				// создана там. Здесь делать нечего.
				s.log.Warn("recurrence advanced concurrently, skipping",
					slog.String("id", rule.ID))
				result.Skipped++
				return
			}
			s.log.Error("failed to apply generation",
				slog.String("id", rule.ID), sl.Err(err))
			result.Failed++
			return
		}
		metrics.GeneratedTransactions.Inc()
		result.Generated++
		s.log.Info("generated transaction from recurrence",
			slog.String("recurrence_id", rule.ID),
			slog.String("transaction_id", id),
			slog.Time("due_date", decision.DueDate))

		next := decision.NextDate
		rule.NextDate = &next
		rule.TotalGenerated++
	}
}

// generatedTransaction собирает финансовую запись из полей правила.
func generatedTransaction(rule *models.Recurrence, dueDate time.Time) models.Transaction {
	return models.Transaction{
		UserUID:      rule.UserUID,
		Kind:         rule.Kind,
		Description:  rule.Description,
		Amount:       rule.Amount,
		DueDate:      dueDate,
		Status:       models.TransactionPending,
		CategoryID:   rule.CategoryID,
		AccountID:    rule.AccountID,
		CostCenterID: rule.CostCenterID,
		SupplierID:   rule.SupplierID,
		RecurrenceID: &rule.ID,
		Notes:        rule.Notes,
	}
}

func buildRecurrence(userUID string, req models.DummyRecurrence) (*models.Recurrence, error) {
	freq := recurrence.Frequency(req.Frequency)
	if !freq.Valid() {
		return nil, fmt.Errorf("%w: %q", recurrence.ErrUnknownFrequency, req.Frequency)
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	rec := models.Recurrence{
		UserUID:         userUID,
		Name:            req.Name,
		Description:     req.Description,
		Kind:            req.Kind,
		Amount:          req.Amount,
		Frequency:       freq,
		StartDate:       startDate,
		GenerationLimit: req.GenerationLimit,
		CategoryID:      req.CategoryID,
		AccountID:       req.AccountID,
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		if endDate.Before(startDate) {
			return nil, fmt.Errorf("end date must not be earlier than start date")
		}
		rec.EndDate = &endDate
	}
	if req.CostCenterID != "" {
		rec.CostCenterID = &req.CostCenterID
	}
	if req.SupplierID != "" {
		rec.SupplierID = &req.SupplierID
	}
	if req.Notes != "" {
		rec.Notes = &req.Notes
	}
	return &rec, nil
}
