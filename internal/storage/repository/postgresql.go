// Package repository реализует хранилище данных на основе PostgreSQL
// для учётных записей пользователей и локального реестра подписок.
// Реестр подписок — зеркало состояния платёжного процессора; все
// согласованные изменения (строка реестра + роль владельца) выполняются
// в одной транзакции.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями и подписками.
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

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	for _, table := range []string{"users", "subscriptions"} {
		var exists bool
		err := storage.DB.QueryRow(`SELECT EXISTS (
	        SELECT FROM information_schema.tables
	        WHERE table_name = $1
	    )`, table).Scan(&exists)
		if err != nil || !exists {
			return fmt.Errorf("required table %s missing or query error: %w", table, err)
		}
	}
	return nil
}
