package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

const planColumns = `id, name, kind, duration_months, price_brl, price_usd, trial_days,
			      max_users, max_transactions, max_products, features, active`

// GetPlan возвращает тарифный план по ID.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM license_plans WHERE id = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ListActivePlans возвращает активные тарифные планы по возрастанию цены.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListActivePlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM license_plans
			  WHERE active = true
			  ORDER BY price_brl`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetTrialPlan возвращает активный пробный план. Он используется при
// регистрации для автоматической выдачи пробной лицензии.
func (s *Storage) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	const op = "storage.GetTrialPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM license_plans
			  WHERE kind = 'trial' AND active = true
			  ORDER BY created_at
			  LIMIT 1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var plan models.Plan
	var featuresRaw []byte
	if err := row.Scan(&plan.ID, &plan.Name, &plan.Kind, &plan.DurationMonths,
		&plan.PriceBRL, &plan.PriceUSD, &plan.TrialDays, &plan.MaxUsers,
		&plan.MaxTransactions, &plan.MaxProducts, &featuresRaw, &plan.Active); err != nil {
		return nil, err
	}
	features, err := scanFeatures(featuresRaw)
	if err != nil {
		return nil, err
	}
	plan.Features = features
	return &plan, nil
}
