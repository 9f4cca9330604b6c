package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin7club/financial-manager/internal/models"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return &Storage{DB: db}, mock
}

func testGeneration() models.Generation {
	prev := time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)
	recurrenceID := "rec-1"
	return models.Generation{
		RecurrenceID: recurrenceID,
		PrevNextDate: &prev,
		NextDate:     time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC),
		Transaction: models.Transaction{
			UserUID:      "user-1",
			Kind:         "expense",
			Description:  "Аренда офиса",
			Amount:       1500,
			DueDate:      prev,
			Status:       models.TransactionPending,
			CategoryID:   "cat-1",
			AccountID:    "acc-1",
			RecurrenceID: &recurrenceID,
		},
	}
}

func TestApplyGeneration_Success(t *testing.T) {
	storage, mock := newMockStorage(t)
	gen := testGeneration()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE financial_recurrences").
		WithArgs(gen.NextDate, gen.RecurrenceID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO financial_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tx-1"))
	mock.ExpectCommit()

	id, err := storage.ApplyGeneration(context.Background(), gen)

	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyGeneration_StaleRecurrence(t *testing.T) {
	storage, mock := newMockStorage(t)
	gen := testGeneration()

	mock.ExpectBegin()
	// Параллельный обход уже продвинул next_date: условие не совпало.
	mock.ExpectExec("UPDATE financial_recurrences").
		WithArgs(gen.NextDate, gen.RecurrenceID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := storage.ApplyGeneration(context.Background(), gen)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleRecurrence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyGeneration_InsertFailureRollsBack(t *testing.T) {
	storage, mock := newMockStorage(t)
	gen := testGeneration()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE financial_recurrences").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO financial_transactions").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := storage.ApplyGeneration(context.Background(), gen)

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyGeneration_CancelledContext(t *testing.T) {
	storage, _ := newMockStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.ApplyGeneration(ctx, testGeneration())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListDueRecurrences(t *testing.T) {
	storage, mock := newMockStorage(t)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_uid", "name", "description", "kind", "amount", "frequency",
		"start_date", "end_date", "active", "next_date", "total_generated", "generation_limit",
		"category_id", "account_id", "cost_center_id", "supplier_id", "notes", "created_at",
	}).AddRow(
		"rec-1", "user-1", "Аренда офиса", "Ежемесячная аренда", "expense", 1500.0, "monthly",
		time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), nil, true,
		time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), 5, nil,
		"cat-1", "acc-1", nil, nil, nil, created,
	)

	mock.ExpectQuery("SELECT (.+) FROM financial_recurrences").
		WithArgs("2024-06-05").
		WillReturnRows(rows)

	result, err := storage.ListDueRecurrences(context.Background(), "2024-06-05")

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "rec-1", result[0].ID)
	assert.Equal(t, 5, result[0].TotalGenerated)
	assert.Nil(t, result[0].GenerationLimit)
	require.NotNil(t, result[0].NextDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
