package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

// CreateCheckoutPayment сохраняет созданный у провайдера платёж.
func (s *Storage) CreateCheckoutPayment(ctx context.Context, p models.CheckoutPayment) (string, error) {
	const op = "storage.CreateCheckoutPayment"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO checkout_payments (user_uid, plan_id, provider_id, status, amount, currency)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.PlanID, p.ProviderID, p.Status, p.Amount, p.Currency).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentByProviderID возвращает платёж по идентификатору провайдера.
func (s *Storage) GetPaymentByProviderID(ctx context.Context, providerID string) (*models.CheckoutPayment, error) {
	const op = "storage.GetPaymentByProviderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, provider_id, status, amount, currency, created_at
			  FROM checkout_payments
			  WHERE provider_id = $1`
	var p models.CheckoutPayment
	err := s.DB.QueryRowContext(ctx, query, providerID).Scan(
		&p.ID, &p.UserUID, &p.PlanID, &p.ProviderID, &p.Status,
		&p.Amount, &p.Currency, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// UpdatePaymentStatus переводит платёж в новый статус.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, providerID, status string) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE checkout_payments SET status = $1 WHERE provider_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, providerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
