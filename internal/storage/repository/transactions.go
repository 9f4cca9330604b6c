package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/admin7club/financial-manager/internal/models"
)

const transactionColumns = `id, user_uid, kind, description, amount, due_date, payment_date,
			      status, category_id, account_id, cost_center_id, supplier_id,
			      recurrence_id, document_number, notes, created_at`

// CreateTransaction вставляет новую финансовую запись и возвращает её ID.
func (s *Storage) CreateTransaction(ctx context.Context, tr models.Transaction) (string, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO financial_transactions (user_uid, kind, description, amount, due_date,
			      payment_date, status, category_id, account_id, cost_center_id, supplier_id,
			      recurrence_id, document_number, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		tr.UserUID, tr.Kind, tr.Description, tr.Amount, tr.DueDate,
		nullTime(tr.PaymentDate), tr.Status, tr.CategoryID, tr.AccountID,
		nullString(tr.CostCenterID), nullString(tr.SupplierID),
		nullString(tr.RecurrenceID), nullString(tr.DocumentNumber), nullString(tr.Notes)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadTransaction возвращает финансовую запись по её ID в пределах пользователя.
func (s *Storage) ReadTransaction(ctx context.Context, id, userUID string) (*models.Transaction, error) {
	const op = "storage.ReadTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + transactionColumns + `
			  FROM financial_transactions WHERE id = $1 AND user_uid = $2`
	row := s.DB.QueryRowContext(ctx, query, id, userUID)

	result, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTransaction обновляет запись по ID и возвращает количество изменённых строк.
func (s *Storage) UpdateTransaction(ctx context.Context, tr models.Transaction, id, userUID string) (int, error) {
	const op = "storage.UpdateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_transactions
			  SET kind = $1, description = $2, amount = $3, due_date = $4, payment_date = $5,
			      status = $6, category_id = $7, account_id = $8, cost_center_id = $9,
			      supplier_id = $10, document_number = $11, notes = $12
			  WHERE id = $13 AND user_uid = $14`
	result, err := s.DB.ExecContext(ctx, query,
		tr.Kind, tr.Description, tr.Amount, tr.DueDate, nullTime(tr.PaymentDate),
		tr.Status, tr.CategoryID, tr.AccountID, nullString(tr.CostCenterID),
		nullString(tr.SupplierID), nullString(tr.DocumentNumber), nullString(tr.Notes),
		id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveTransaction удаляет запись по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveTransaction(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM financial_transactions WHERE id = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListTransactions возвращает записи пользователя с пагинацией,
// последние по дате сверху.
func (s *Storage) ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + transactionColumns + `
			  FROM financial_transactions
			  WHERE user_uid = $1
			  ORDER BY due_date DESC, created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		item, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountTransactions возвращает количество записей пользователя.
// Используется для проверки лимита тарифного плана.
func (s *Storage) CountTransactions(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountTransactions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM financial_transactions WHERE user_uid = $1`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// TransactionStats считает агрегаты по записям пользователя за период.
func (s *Storage) TransactionStats(ctx context.Context, userUID string, start, end time.Time) (*models.TransactionStats, error) {
	const op = "storage.TransactionStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND status = 'paid'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'expense' AND status = 'paid'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND status = 'pending'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE kind = 'expense' AND status = 'pending'), 0)
			  FROM financial_transactions
			  WHERE user_uid = $1
			    AND status <> 'cancelled'
			    AND due_date BETWEEN $2 AND $3`
	var stats models.TransactionStats
	err := s.DB.QueryRowContext(ctx, query, userUID, start, end).Scan(
		&stats.TotalIncome, &stats.TotalExpense,
		&stats.IncomePaid, &stats.ExpensePaid,
		&stats.IncomePending, &stats.ExpensePending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.Balance = stats.TotalIncome - stats.TotalExpense
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tr models.Transaction
	var paymentDate sql.NullTime
	var costCenterID, supplierID, recurrenceID, documentNumber, notes sql.NullString
	if err := row.Scan(&tr.ID, &tr.UserUID, &tr.Kind, &tr.Description, &tr.Amount,
		&tr.DueDate, &paymentDate, &tr.Status, &tr.CategoryID, &tr.AccountID,
		&costCenterID, &supplierID, &recurrenceID, &documentNumber, &notes,
		&tr.CreatedAt); err != nil {
		return nil, err
	}
	if paymentDate.Valid {
		tr.PaymentDate = &paymentDate.Time
	}
	tr.CostCenterID = stringPtr(costCenterID)
	tr.SupplierID = stringPtr(supplierID)
	tr.RecurrenceID = stringPtr(recurrenceID)
	tr.DocumentNumber = stringPtr(documentNumber)
	tr.Notes = stringPtr(notes)
	return &tr, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
