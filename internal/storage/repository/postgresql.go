// Package repository реализует хранилище данных на основе PostgreSQL
// для управления платежами, пробными периодами и правами платного доступа.
// Уникальные индексы хранилища являются авторитетной защитой инвариантов:
// один код транзакции на весь реестр, не более одного платежа на проверке
// на пользователя, не более одной записи пробного периода.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Имена ограничений схемы, по которым нарушения уникальности
// сопоставляются с ошибками бизнес-уровня. Первичный ключ trials
// в сопоставлении не участвует: вставки в trials идут через
// ON CONFLICT DO NOTHING и нарушение не поднимают.
const (
	constraintTransactionID = "payments_transaction_id_key"
	constraintOnePending    = "payments_one_pending_per_user_idx"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с платежами, пробными периодами и правами доступа.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
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

// Close закрывает соединение с базой данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'payments'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table payments missing or query error: %w", err)
	}
	return nil
}

// uniqueViolation возвращает имя нарушенного ограничения уникальности
// (SQLSTATE 23505) или пустую строку.
func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
