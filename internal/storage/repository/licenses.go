package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/admin7club/financial-manager/internal/models"
)

const licenseColumns = `l.id, l.user_uid, l.plan_id, l.plan_type, l.status, l.active, l.blocked,
			      l.block_reason, l.license_key, l.start_date, l.expiry_date, l.activation_date,
			      l.last_used_date, l.usage_attempts, l.max_users, l.max_transactions,
			      l.max_products, l.features`

// GetCurrentLicense возвращает последнюю запись лицензии пользователя.
// Если записей нет, возвращается ErrNotFound: пользователь без лицензии.
func (s *Storage) GetCurrentLicense(ctx context.Context, userUID string) (*models.License, error) {
	const op = "storage.GetCurrentLicense"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses l
			  WHERE l.user_uid = $1
			  ORDER BY l.created_at DESC
			  LIMIT 1`
	lic, err := scanLicense(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lic, nil
}

// TouchLicenseUsage отмечает обращение к лицензии: дата последнего
// использования и счётчик попыток. Вызывается в фоне, ошибка не влияет
// на результат проверки.
func (s *Storage) TouchLicenseUsage(ctx context.Context, licenseID string) error {
	const op = "storage.TouchLicenseUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET last_used_date = now(), usage_attempts = usage_attempts + 1
			  WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, licenseID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LicenseKeyUsed проверяет, активирован ли уже данный лицензионный ключ.
func (s *Storage) LicenseKeyUsed(ctx context.Context, licenseKey string) (bool, error) {
	const op = "storage.LicenseKeyUsed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var used bool
	query := `SELECT EXISTS (SELECT 1 FROM licenses WHERE license_key = $1)`
	if err := s.DB.QueryRowContext(ctx, query, licenseKey).Scan(&used); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return used, nil
}

// ActivateLicense вставляет новую запись лицензии и строку журнала
// в одной транзакции, возвращает ID лицензии.
func (s *Storage) ActivateLicense(ctx context.Context, lic models.License, entry models.LicenseHistoryEntry) (string, error) {
	const op = "storage.ActivateLicense"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	featuresRaw, err := marshalFeatures(lic.Features)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertLicense := `INSERT INTO licenses (user_uid, plan_id, plan_type, status, active, blocked,
			      license_key, start_date, expiry_date, activation_date,
			      max_users, max_transactions, max_products, features)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING id`
	var licenseID string
	err = tx.QueryRowContext(ctx, insertLicense,
		lic.UserUID, nullString(lic.PlanID), lic.PlanType, lic.Status, lic.Active,
		lic.Blocked, nullString(lic.LicenseKey), lic.StartDate, lic.ExpiryDate,
		nullTime(lic.ActivationDate), lic.MaxUsers, lic.MaxTransactions,
		lic.MaxProducts, featuresRaw).Scan(&licenseID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	insertHistory := `INSERT INTO license_history (user_uid, license_id, plan_id, action,
			      previous_date, new_date, amount_paid, payment_method, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.ExecContext(ctx, insertHistory,
		entry.UserUID, licenseID, nullString(entry.PlanID), entry.Action,
		nullTime(entry.PreviousDate), nullTime(entry.NewDate),
		nullFloat(entry.AmountPaid), nullString(entry.PaymentMethod),
		nullString(entry.Notes))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return licenseID, nil
}

// ListLicenseHistory возвращает журнал действий над лицензиями пользователя.
func (s *Storage) ListLicenseHistory(ctx context.Context, userUID string) ([]*models.LicenseHistoryEntry, error) {
	const op = "storage.ListLicenseHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, license_id, plan_id, action, previous_date, new_date,
			      amount_paid, payment_method, notes, created_at
			  FROM license_history
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LicenseHistoryEntry
	for rows.Next() {
		var entry models.LicenseHistoryEntry
		var planID, paymentMethod, notes sql.NullString
		var previousDate, newDate sql.NullTime
		var amountPaid sql.NullFloat64
		if err = rows.Scan(&entry.ID, &entry.UserUID, &entry.LicenseID, &planID,
			&entry.Action, &previousDate, &newDate, &amountPaid,
			&paymentMethod, &notes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entry.PlanID = stringPtr(planID)
		entry.PaymentMethod = stringPtr(paymentMethod)
		entry.Notes = stringPtr(notes)
		if previousDate.Valid {
			entry.PreviousDate = &previousDate.Time
		}
		if newDate.Valid {
			entry.NewDate = &newDate.Time
		}
		if amountPaid.Valid {
			entry.AmountPaid = &amountPaid.Float64
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpiringLicense — лицензия, истекающая в ближайшие дни,
// вместе с адресом владельца для уведомления.
type ExpiringLicense struct {
	LicenseID  string
	Username   string
	Email      string
	PlanType   string
	ExpiryDate time.Time
}

// FindLicensesExpiringSoon возвращает актуальные лицензии, истекающие
// в пределах days дней от now. Для каждого пользователя берётся только
// последняя запись.
func (s *Storage) FindLicensesExpiringSoon(ctx context.Context, now time.Time, days int) ([]ExpiringLicense, error) {
	const op = "storage.FindLicensesExpiringSoon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT l.id, u.username, u.email, l.plan_type, l.expiry_date
			  FROM licenses l
			  JOIN users u ON u.uid = l.user_uid
			  WHERE l.created_at = (SELECT MAX(created_at) FROM licenses WHERE user_uid = l.user_uid)
			    AND NOT l.blocked
			    AND l.status NOT IN ('expired', 'cancelled', 'blocked')
			    AND l.expiry_date > $1
			    AND l.expiry_date <= $2
			  ORDER BY l.expiry_date`
	rows, err := s.DB.QueryContext(ctx, query, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []ExpiringLicense
	for rows.Next() {
		var item ExpiringLicense
		if err = rows.Scan(&item.LicenseID, &item.Username, &item.Email,
			&item.PlanType, &item.ExpiryDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanLicense(row rowScanner) (*models.License, error) {
	var lic models.License
	var planID, blockReason, licenseKey sql.NullString
	var activationDate, lastUsedDate sql.NullTime
	var featuresRaw []byte
	if err := row.Scan(&lic.ID, &lic.UserUID, &planID, &lic.PlanType, &lic.Status,
		&lic.Active, &lic.Blocked, &blockReason, &licenseKey, &lic.StartDate,
		&lic.ExpiryDate, &activationDate, &lastUsedDate, &lic.UsageAttempts,
		&lic.MaxUsers, &lic.MaxTransactions, &lic.MaxProducts, &featuresRaw); err != nil {
		return nil, err
	}
	lic.PlanID = stringPtr(planID)
	lic.BlockReason = stringPtr(blockReason)
	lic.LicenseKey = stringPtr(licenseKey)
	if activationDate.Valid {
		lic.ActivationDate = &activationDate.Time
	}
	if lastUsedDate.Valid {
		lic.LastUsedDate = &lastUsedDate.Time
	}
	features, err := scanFeatures(featuresRaw)
	if err != nil {
		return nil, err
	}
	lic.Features = features
	return &lic, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
