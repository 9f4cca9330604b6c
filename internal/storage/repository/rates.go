package repository

import (
	"context"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

// UpsertExchangeRate сохраняет курс валюты, заменяя предыдущее значение.
func (s *Storage) UpsertExchangeRate(ctx context.Context, rate models.ExchangeRate) error {
	const op = "storage.UpsertExchangeRate"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO exchange_rates (currency, rate_brl, source, updated_at)
			  VALUES ($1, $2, $3, now())
			  ON CONFLICT (currency)
			  DO UPDATE SET rate_brl = EXCLUDED.rate_brl, source = EXCLUDED.source, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, rate.Currency, rate.RateBRL, rate.Source); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListExchangeRates возвращает все сохранённые курсы.
func (s *Storage) ListExchangeRates(ctx context.Context) ([]*models.ExchangeRate, error) {
	const op = "storage.ListExchangeRates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT currency, rate_brl, source, updated_at FROM exchange_rates ORDER BY currency`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExchangeRate
	for rows.Next() {
		var rate models.ExchangeRate
		if err = rows.Scan(&rate.Currency, &rate.RateBRL, &rate.Source, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
