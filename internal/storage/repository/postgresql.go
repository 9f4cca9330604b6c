// Package repository реализует хранилище данных на основе PostgreSQL
// для финансовых записей, правил повторения, каталога и лицензий.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует.
var ErrNotFound = errors.New("not found")

// ErrStaleRecurrence возвращается, когда условное обновление правила не
// прошло: другой обход уже продвинул его дату.
var ErrStaleRecurrence = errors.New("recurrence already advanced")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'financial_recurrences'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table financial_recurrences missing or query error: %w", err)
	}
	return nil
}

// scanFeatures разбирает jsonb-колонку с флагами функций.
func scanFeatures(raw []byte) (map[entitlement.Feature]bool, error) {
	if len(raw) == 0 {
		return map[entitlement.Feature]bool{}, nil
	}
	var features map[entitlement.Feature]bool
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// marshalFeatures сериализует флаги функций в jsonb.
func marshalFeatures(features map[entitlement.Feature]bool) ([]byte, error) {
	if features == nil {
		features = map[entitlement.Feature]bool{}
	}
	return json.Marshal(features)
}

// nullString конвертирует указатель в sql.NullString.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr конвертирует sql.NullString в указатель.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
