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

	"github.com/admin7club/financial-manager/internal/lib/recurrence"
	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateRecurrence(ctx context.Context, rec models.Recurrence) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ReadRecurrence(ctx context.Context, id, userUID string) (*models.Recurrence, error) {
	args := m.Called(ctx, id, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recurrence), args.Error(1)
}

func (m *MockRepository) UpdateRecurrence(ctx context.Context, rec models.Recurrence, id, userUID string) (int, error) {
	args := m.Called(ctx, rec, id, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) RemoveRecurrence(ctx context.Context, id, userUID string) (int, error) {
	args := m.Called(ctx, id, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListRecurrences(ctx context.Context, userUID string) ([]*models.Recurrence, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recurrence), args.Error(1)
}

func (m *MockRepository) SetRecurrenceActive(ctx context.Context, id, userUID string, active bool) (int, error) {
	args := m.Called(ctx, id, userUID, active)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListDueRecurrences(ctx context.Context, today string) ([]*models.Recurrence, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recurrence), args.Error(1)
}

func (m *MockRepository) ApplyGeneration(ctx context.Context, gen models.Generation) (string, error) {
	args := m.Called(ctx, gen)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) DeactivateRecurrence(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ RecurrenceRepository = (*MockRepository)(nil)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func dueRule(next time.Time) *models.Recurrence {
	return &models.Recurrence{
		ID:          "rec-1",
		UserUID:     "user-1",
		Name:        "Аренда офиса",
		Description: "Ежемесячная аренда",
		Kind:        "expense",
		Amount:      1500,
		Frequency:   recurrence.Monthly,
		StartDate:   date(2024, time.January, 5),
		Active:      true,
		NextDate:    ptrTime(next),
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	}
}

func TestGenerateDue_GeneratesSingleTransaction(t *testing.T) {
	mockRepo := new(MockRepository)
	today := date(2024, time.June, 5)
	rule := dueRule(date(2024, time.June, 5))

	mockRepo.On("ListDueRecurrences", mock.Anything, "2024-06-05").
		Return([]*models.Recurrence{rule}, nil).Once()
	mockRepo.On("ApplyGeneration", mock.Anything, mock.MatchedBy(func(gen models.Generation) bool {
		return gen.RecurrenceID == "rec-1" &&
			gen.Transaction.DueDate.Equal(date(2024, time.June, 5)) &&
			gen.NextDate.Equal(date(2024, time.July, 5))
	})).Return("tx-1", nil).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	result, err := service.GenerateDue(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 0, result.Failed)
	mockRepo.AssertExpectations(t)
}

func TestGenerateDue_CatchesUpMissedPeriods(t *testing.T) {
	mockRepo := new(MockRepository)
	// Обходчик не работал два месяца: правило должно дать три записи подряд.
	today := date(2024, time.June, 5)
	rule := dueRule(date(2024, time.April, 5))

	mockRepo.On("ListDueRecurrences", mock.Anything, "2024-06-05").
		Return([]*models.Recurrence{rule}, nil).Once()
	for _, due := range []time.Time{
		date(2024, time.April, 5),
		date(2024, time.May, 5),
		date(2024, time.June, 5),
	} {
		due := due
		mockRepo.On("ApplyGeneration", mock.Anything, mock.MatchedBy(func(gen models.Generation) bool {
			return gen.Transaction.DueDate.Equal(due)
		})).Return("tx-"+due.Format("01"), nil).Once()
	}

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	result, err := service.GenerateDue(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Generated)
	assert.Equal(t, 3, rule.TotalGenerated)
	mockRepo.AssertExpectations(t)
}

func TestGenerateDue_DeactivatesPastEndDate(t *testing.T) {
	mockRepo := new(MockRepository)
	today := date(2024, time.June, 5)
	rule := dueRule(date(2024, time.June, 5))
	rule.EndDate = ptrTime(date(2024, time.May, 31))

	mockRepo.On("ListDueRecurrences", mock.Anything, "2024-06-05").
		Return([]*models.Recurrence{rule}, nil).Once()
	mockRepo.On("DeactivateRecurrence", mock.Anything, "rec-1").Return(nil).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	result, err := service.GenerateDue(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Generated)
	assert.Equal(t, 1, result.Deactivated)
	mockRepo.AssertExpectations(t)
}

func TestGenerateDue_StaleRecurrenceSkipsQuietly(t *testing.T) {
	mockRepo := new(MockRepository)
	today := date(2024, time.June, 5)
	rule := dueRule(date(2024, time.June, 5))

	mockRepo.On("ListDueRecurrences", mock.Anything, "2024-06-05").
		Return([]*models.Recurrence{rule}, nil).Once()
	mockRepo.On("ApplyGeneration", mock.Anything, mock.Anything).
		Return("", repository.ErrStaleRecurrence).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	result, err := service.GenerateDue(context.Background(), today)

	// Параллельный обход уже продвинул правило: это не ошибка.
	require.NoError(t, err)
	assert.Equal(t, 0, result.Generated)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	mockRepo.AssertExpectations(t)
}

func TestGenerateDue_UnknownFrequencyFailsOneRule(t *testing.T) {
	mockRepo := new(MockRepository)
	today := date(2024, time.June, 5)

	broken := dueRule(date(2024, time.June, 5))
	broken.ID = "rec-broken"
	broken.Frequency = recurrence.Frequency("lunar")
	healthy := dueRule(date(2024, time.June, 5))

	mockRepo.On("ListDueRecurrences", mock.Anything, "2024-06-05").
		Return([]*models.Recurrence{broken, healthy}, nil).Once()
	mockRepo.On("ApplyGeneration", mock.Anything, mock.MatchedBy(func(gen models.Generation) bool {
		return gen.RecurrenceID == "rec-1"
	})).Return("tx-1", nil).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	result, err := service.GenerateDue(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Generated)
	mockRepo.AssertExpectations(t)
}

func TestGenerateDue_ListError(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("ListDueRecurrences", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	_, err := service.GenerateDue(context.Background(), date(2024, time.June, 5))

	require.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreate_RejectsUnknownFrequency(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewRecurrenceService(mockRepo, newNoopLogger())

	_, err := service.Create(context.Background(), "user-1", models.DummyRecurrence{
		Name:        "Аренда",
		Description: "Аренда офиса",
		Kind:        "expense",
		Amount:      1500,
		Frequency:   "fortnightly",
		StartDate:   "2024-06-01",
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, recurrence.ErrUnknownFrequency)
	mockRepo.AssertNotCalled(t, "CreateRecurrence")
}

func TestCreate_RejectsEndBeforeStart(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewRecurrenceService(mockRepo, newNoopLogger())

	_, err := service.Create(context.Background(), "user-1", models.DummyRecurrence{
		Name:        "Аренда",
		Description: "Аренда офиса",
		Kind:        "expense",
		Amount:      1500,
		Frequency:   "monthly",
		StartDate:   "2024-06-01",
		EndDate:     "2024-05-01",
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	})

	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "CreateRecurrence")
}

func TestCreate_NewRuleIsActive(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("CreateRecurrence", mock.Anything, mock.MatchedBy(func(rec models.Recurrence) bool {
		return rec.Active && rec.NextDate == nil && rec.TotalGenerated == 0
	})).Return("rec-1", nil).Once()

	service := NewRecurrenceService(mockRepo, newNoopLogger())
	id, err := service.Create(context.Background(), "user-1", models.DummyRecurrence{
		Name:        "Аренда",
		Description: "Аренда офиса",
		Kind:        "expense",
		Amount:      1500,
		Frequency:   "monthly",
		StartDate:   "2024-06-01",
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)
	mockRepo.AssertExpectations(t)
}
