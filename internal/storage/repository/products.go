package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

// CreateProductType вставляет новый тип продукта и возвращает его ID.
func (s *Storage) CreateProductType(ctx context.Context, pt models.ProductType) (string, error) {
	const op = "storage.CreateProductType"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO product_types (user_uid, name, description)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		pt.UserUID, pt.Name, nullString(pt.Description)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProductTypes возвращает типы продуктов пользователя.
func (s *Storage) ListProductTypes(ctx context.Context, userUID string) ([]*models.ProductType, error) {
	const op = "storage.ListProductTypes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, description, active, created_at
			  FROM product_types
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ProductType
	for rows.Next() {
		var pt models.ProductType
		var description sql.NullString
		if err = rows.Scan(&pt.ID, &pt.UserUID, &pt.Name, &description,
			&pt.Active, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pt.Description = stringPtr(description)
		result = append(result, &pt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateProductType обновляет тип продукта по ID.
func (s *Storage) UpdateProductType(ctx context.Context, pt models.ProductType, id, userUID string) (int, error) {
	const op = "storage.UpdateProductType"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE product_types SET name = $1, description = $2
			  WHERE id = $3 AND user_uid = $4`
	result, err := s.DB.ExecContext(ctx, query,
		pt.Name, nullString(pt.Description), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveProductType удаляет тип продукта по ID.
func (s *Storage) RemoveProductType(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveProductType"
	return s.removeByID(ctx, op, "product_types", id, userUID)
}

// CreateProduct вставляет новый продукт и возвращает его ID.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) (string, error) {
	const op = "storage.CreateProduct"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO products (user_uid, product_type_id, name, description,
			      price_kind, price_brl, price_usd)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.ProductTypeID, p.Name, nullString(p.Description),
		p.PriceKind, p.PriceBRL, p.PriceUSD).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProducts возвращает продукты пользователя.
func (s *Storage) ListProducts(ctx context.Context, userUID string) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, product_type_id, name, description,
			      price_kind, price_brl, price_usd, active, created_at
			  FROM products
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Product
	for rows.Next() {
		var p models.Product
		var description sql.NullString
		if err = rows.Scan(&p.ID, &p.UserUID, &p.ProductTypeID, &p.Name, &description,
			&p.PriceKind, &p.PriceBRL, &p.PriceUSD, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Description = stringPtr(description)
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateProduct обновляет продукт по ID.
func (s *Storage) UpdateProduct(ctx context.Context, p models.Product, id, userUID string) (int, error) {
	const op = "storage.UpdateProduct"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE products
			  SET product_type_id = $1, name = $2, description = $3,
			      price_kind = $4, price_brl = $5, price_usd = $6
			  WHERE id = $7 AND user_uid = $8`
	result, err := s.DB.ExecContext(ctx, query,
		p.ProductTypeID, p.Name, nullString(p.Description),
		p.PriceKind, p.PriceBRL, p.PriceUSD, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveProduct удаляет продукт по ID.
func (s *Storage) RemoveProduct(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveProduct"
	return s.removeByID(ctx, op, "products", id, userUID)
}

// CountProducts возвращает количество продуктов пользователя.
// Используется для проверки лимита тарифного плана.
func (s *Storage) CountProducts(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountProducts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM products WHERE user_uid = $1`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
