package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

const recurrenceColumns = `id, user_uid, name, description, kind, amount, frequency,
			      start_date, end_date, active, next_date, total_generated, generation_limit,
			      category_id, account_id, cost_center_id, supplier_id, notes, created_at`

// CreateRecurrence вставляет новое правило повторения и возвращает его ID.
func (s *Storage) CreateRecurrence(ctx context.Context, rec models.Recurrence) (string, error) {
	const op = "storage.CreateRecurrence"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO financial_recurrences (user_uid, name, description, kind, amount,
			      frequency, start_date, end_date, active, next_date, generation_limit,
			      category_id, account_id, cost_center_id, supplier_id, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		rec.UserUID, rec.Name, rec.Description, rec.Kind, rec.Amount,
		rec.Frequency, rec.StartDate, nullTime(rec.EndDate), rec.Active,
		nullTime(rec.NextDate), nullInt(rec.GenerationLimit),
		rec.CategoryID, rec.AccountID, nullString(rec.CostCenterID),
		nullString(rec.SupplierID), nullString(rec.Notes)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadRecurrence возвращает правило по ID в пределах пользователя.
func (s *Storage) ReadRecurrence(ctx context.Context, id, userUID string) (*models.Recurrence, error) {
	const op = "storage.ReadRecurrence"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recurrenceColumns + `
			  FROM financial_recurrences WHERE id = $1 AND user_uid = $2`
	result, err := scanRecurrence(s.DB.QueryRowContext(ctx, query, id, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateRecurrence обновляет редактируемые поля правила и возвращает
// количество изменённых строк. Поля расписания здесь не трогаются.
func (s *Storage) UpdateRecurrence(ctx context.Context, rec models.Recurrence, id, userUID string) (int, error) {
	const op = "storage.UpdateRecurrence"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_recurrences
			  SET name = $1, description = $2, kind = $3, amount = $4, frequency = $5,
			      start_date = $6, end_date = $7, generation_limit = $8, category_id = $9,
			      account_id = $10, cost_center_id = $11, supplier_id = $12, notes = $13
			  WHERE id = $14 AND user_uid = $15`
	result, err := s.DB.ExecContext(ctx, query,
		rec.Name, rec.Description, rec.Kind, rec.Amount, rec.Frequency,
		rec.StartDate, nullTime(rec.EndDate), nullInt(rec.GenerationLimit),
		rec.CategoryID, rec.AccountID, nullString(rec.CostCenterID),
		nullString(rec.SupplierID), nullString(rec.Notes), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveRecurrence удаляет правило по ID. Сгенерированные им записи
// остаются, ссылка recurrence_id в них обнуляется на уровне схемы.
func (s *Storage) RemoveRecurrence(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveRecurrence"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM financial_recurrences WHERE id = $1 AND user_uid = $2`
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

// ListRecurrences возвращает все правила пользователя.
func (s *Storage) ListRecurrences(ctx context.Context, userUID string) ([]*models.Recurrence, error) {
	const op = "storage.ListRecurrences"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recurrenceColumns + `
			  FROM financial_recurrences
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Recurrence
	for rows.Next() {
		item, err := scanRecurrence(rows)
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

// SetRecurrenceActive включает или выключает правило.
func (s *Storage) SetRecurrenceActive(ctx context.Context, id, userUID string, active bool) (int, error) {
	const op = "storage.SetRecurrenceActive"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_recurrences SET active = $1 WHERE id = $2 AND user_uid = $3`
	result, err := s.DB.ExecContext(ctx, query, active, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListDueRecurrences возвращает активные правила, чья ближайшая дата не
// позже today. Правила без next_date тоже попадают в выборку: для них дата
// выводится из start_date при оценке.
func (s *Storage) ListDueRecurrences(ctx context.Context, today string) ([]*models.Recurrence, error) {
	const op = "storage.ListDueRecurrences"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recurrenceColumns + `
			  FROM financial_recurrences
			  WHERE active = true
			    AND COALESCE(next_date, start_date) <= $1
			  ORDER BY user_uid, created_at`
	rows, err := s.DB.QueryContext(ctx, query, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Recurrence
	for rows.Next() {
		item, err := scanRecurrence(rows)
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

// ApplyGeneration атомарно фиксирует срабатывание правила: вставляет
// сгенерированную запись и продвигает расписание в одной транзакции.
// Условие на прежнее значение next_date защищает от параллельного обхода:
// если другая копия планировщика уже продвинула правило, возвращается
// ErrStaleRecurrence и запись не вставляется.
func (s *Storage) ApplyGeneration(ctx context.Context, gen models.Generation) (string, error) {
	const op = "storage.ApplyGeneration"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	advance := `UPDATE financial_recurrences
			  SET next_date = $1, total_generated = total_generated + 1
			  WHERE id = $2 AND next_date IS NOT DISTINCT FROM $3`
	result, err := tx.ExecContext(ctx, advance,
		gen.NextDate, gen.RecurrenceID, nullTime(gen.PrevNextDate))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrStaleRecurrence)
	}

	insert := `INSERT INTO financial_transactions (user_uid, kind, description, amount, due_date,
			      status, category_id, account_id, cost_center_id, supplier_id, recurrence_id, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id`
	tr := gen.Transaction
	var newID string
	err = tx.QueryRowContext(ctx, insert,
		tr.UserUID, tr.Kind, tr.Description, tr.Amount, tr.DueDate, tr.Status,
		tr.CategoryID, tr.AccountID, nullString(tr.CostCenterID),
		nullString(tr.SupplierID), nullString(tr.RecurrenceID), nullString(tr.Notes)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// DeactivateRecurrence выключает правило, не продвигая расписание.
// Используется обходчиком для правил с истёкшим сроком или лимитом.
func (s *Storage) DeactivateRecurrence(ctx context.Context, id string) error {
	const op = "storage.DeactivateRecurrence"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_recurrences SET active = false WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanRecurrence(row rowScanner) (*models.Recurrence, error) {
	var rec models.Recurrence
	var endDate, nextDate sql.NullTime
	var generationLimit sql.NullInt64
	var costCenterID, supplierID, notes sql.NullString
	if err := row.Scan(&rec.ID, &rec.UserUID, &rec.Name, &rec.Description, &rec.Kind,
		&rec.Amount, &rec.Frequency, &rec.StartDate, &endDate, &rec.Active,
		&nextDate, &rec.TotalGenerated, &generationLimit,
		&rec.CategoryID, &rec.AccountID, &costCenterID, &supplierID, &notes,
		&rec.CreatedAt); err != nil {
		return nil, err
	}
	if endDate.Valid {
		rec.EndDate = &endDate.Time
	}
	if nextDate.Valid {
		rec.NextDate = &nextDate.Time
	}
	if generationLimit.Valid {
		limit := int(generationLimit.Int64)
		rec.GenerationLimit = &limit
	}
	rec.CostCenterID = stringPtr(costCenterID)
	rec.SupplierID = stringPtr(supplierID)
	rec.Notes = stringPtr(notes)
	return &rec, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
