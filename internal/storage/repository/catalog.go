package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/admin7club/financial-manager/internal/models"
)

// CreateAccount вставляет новый финансовый счёт и возвращает его ID.
func (s *Storage) CreateAccount(ctx context.Context, acc models.Account) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO financial_accounts (user_uid, name, kind, bank, branch, "number",
			      initial_balance, current_balance, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		acc.UserUID, acc.Name, acc.Kind, nullString(acc.Bank), nullString(acc.Branch),
		nullString(acc.Number), acc.InitialBalance, nullString(acc.Notes)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListAccounts возвращает счета пользователя.
func (s *Storage) ListAccounts(ctx context.Context, userUID string) ([]*models.Account, error) {
	const op = "storage.ListAccounts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, kind, bank, branch, "number",
			      initial_balance, current_balance, active, notes, created_at
			  FROM financial_accounts
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		var acc models.Account
		var bank, branch, number, notes sql.NullString
		if err = rows.Scan(&acc.ID, &acc.UserUID, &acc.Name, &acc.Kind, &bank,
			&branch, &number, &acc.InitialBalance, &acc.CurrentBalance,
			&acc.Active, &notes, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		acc.Bank = stringPtr(bank)
		acc.Branch = stringPtr(branch)
		acc.Number = stringPtr(number)
		acc.Notes = stringPtr(notes)
		result = append(result, &acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateAccount обновляет счёт по ID и возвращает количество изменённых строк.
func (s *Storage) UpdateAccount(ctx context.Context, acc models.Account, id, userUID string) (int, error) {
	const op = "storage.UpdateAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_accounts
			  SET name = $1, kind = $2, bank = $3, branch = $4, "number" = $5, notes = $6
			  WHERE id = $7 AND user_uid = $8`
	result, err := s.DB.ExecContext(ctx, query,
		acc.Name, acc.Kind, nullString(acc.Bank), nullString(acc.Branch),
		nullString(acc.Number), nullString(acc.Notes), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveAccount удаляет счёт по ID.
func (s *Storage) RemoveAccount(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveAccount"
	return s.removeByID(ctx, op, "financial_accounts", id, userUID)
}

// CreateCategory вставляет новую категорию и возвращает её ID.
func (s *Storage) CreateCategory(ctx context.Context, cat models.Category) (string, error) {
	const op = "storage.CreateCategory"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO financial_categories (user_uid, name, kind, color, description, parent_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		cat.UserUID, cat.Name, cat.Kind, nullString(cat.Color),
		nullString(cat.Description), nullString(cat.ParentID)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListCategories возвращает категории пользователя заданного вида.
// Пустой kind означает все категории.
func (s *Storage) ListCategories(ctx context.Context, userUID, kind string) ([]*models.Category, error) {
	const op = "storage.ListCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, kind, color, description, parent_id, active, created_at
			  FROM financial_categories
			  WHERE user_uid = $1 AND ($2 = '' OR kind = $2)
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Category
	for rows.Next() {
		var cat models.Category
		var color, description, parentID sql.NullString
		if err = rows.Scan(&cat.ID, &cat.UserUID, &cat.Name, &cat.Kind, &color,
			&description, &parentID, &cat.Active, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cat.Color = stringPtr(color)
		cat.Description = stringPtr(description)
		cat.ParentID = stringPtr(parentID)
		result = append(result, &cat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCategory обновляет категорию по ID.
func (s *Storage) UpdateCategory(ctx context.Context, cat models.Category, id, userUID string) (int, error) {
	const op = "storage.UpdateCategory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE financial_categories
			  SET name = $1, kind = $2, color = $3, description = $4, parent_id = $5
			  WHERE id = $6 AND user_uid = $7`
	result, err := s.DB.ExecContext(ctx, query,
		cat.Name, cat.Kind, nullString(cat.Color), nullString(cat.Description),
		nullString(cat.ParentID), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveCategory удаляет категорию по ID.
func (s *Storage) RemoveCategory(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveCategory"
	return s.removeByID(ctx, op, "financial_categories", id, userUID)
}

// CreateCostCenter вставляет новый центр затрат и возвращает его ID.
func (s *Storage) CreateCostCenter(ctx context.Context, cc models.CostCenter) (string, error) {
	const op = "storage.CreateCostCenter"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO cost_centers (user_uid, name, code, description)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		cc.UserUID, cc.Name, nullString(cc.Code), nullString(cc.Description)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListCostCenters возвращает центры затрат пользователя.
func (s *Storage) ListCostCenters(ctx context.Context, userUID string) ([]*models.CostCenter, error) {
	const op = "storage.ListCostCenters"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, code, description, active, created_at
			  FROM cost_centers
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CostCenter
	for rows.Next() {
		var cc models.CostCenter
		var code, description sql.NullString
		if err = rows.Scan(&cc.ID, &cc.UserUID, &cc.Name, &code, &description,
			&cc.Active, &cc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cc.Code = stringPtr(code)
		cc.Description = stringPtr(description)
		result = append(result, &cc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCostCenter обновляет центр затрат по ID.
func (s *Storage) UpdateCostCenter(ctx context.Context, cc models.CostCenter, id, userUID string) (int, error) {
	const op = "storage.UpdateCostCenter"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE cost_centers
			  SET name = $1, code = $2, description = $3
			  WHERE id = $4 AND user_uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		cc.Name, nullString(cc.Code), nullString(cc.Description), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveCostCenter удаляет центр затрат по ID.
func (s *Storage) RemoveCostCenter(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveCostCenter"
	return s.removeByID(ctx, op, "cost_centers", id, userUID)
}

// CreateSupplier вставляет нового поставщика и возвращает его ID.
func (s *Storage) CreateSupplier(ctx context.Context, sup models.Supplier) (string, error) {
	const op = "storage.CreateSupplier"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO suppliers (user_uid, name, document, document_kind, email, phone, address, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		sup.UserUID, sup.Name, nullString(sup.Document), nullString(sup.DocumentKind),
		nullString(sup.Email), nullString(sup.Phone), nullString(sup.Address),
		nullString(sup.Notes)).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListSuppliers возвращает поставщиков пользователя.
func (s *Storage) ListSuppliers(ctx context.Context, userUID string) ([]*models.Supplier, error) {
	const op = "storage.ListSuppliers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, document, document_kind, email, phone, address, active, notes, created_at
			  FROM suppliers
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Supplier
	for rows.Next() {
		var sup models.Supplier
		var document, documentKind, email, phone, address, notes sql.NullString
		if err = rows.Scan(&sup.ID, &sup.UserUID, &sup.Name, &document, &documentKind,
			&email, &phone, &address, &sup.Active, &notes, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sup.Document = stringPtr(document)
		sup.DocumentKind = stringPtr(documentKind)
		sup.Email = stringPtr(email)
		sup.Phone = stringPtr(phone)
		sup.Address = stringPtr(address)
		sup.Notes = stringPtr(notes)
		result = append(result, &sup)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSupplier обновляет поставщика по ID.
func (s *Storage) UpdateSupplier(ctx context.Context, sup models.Supplier, id, userUID string) (int, error) {
	const op = "storage.UpdateSupplier"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE suppliers
			  SET name = $1, document = $2, document_kind = $3, email = $4, phone = $5,
			      address = $6, notes = $7
			  WHERE id = $8 AND user_uid = $9`
	result, err := s.DB.ExecContext(ctx, query,
		sup.Name, nullString(sup.Document), nullString(sup.DocumentKind),
		nullString(sup.Email), nullString(sup.Phone), nullString(sup.Address),
		nullString(sup.Notes), id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSupplier удаляет поставщика по ID.
func (s *Storage) RemoveSupplier(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.RemoveSupplier"
	return s.removeByID(ctx, op, "suppliers", id, userUID)
}

// removeByID удаляет строку каталога по ID в пределах пользователя.
// table — имя таблицы из вызывающего кода, не из пользовательского ввода.
func (s *Storage) removeByID(ctx context.Context, op, table, id, userUID string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_uid = $2`, table)
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
