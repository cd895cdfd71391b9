package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTransactionNotFound = errors.New("транзакция не найдена")
	ErrSettingsNotFound    = errors.New("настройки пользователя не найдены")
)

// Store — доступ к коллекциям транзакций, балансов и настроек пользователей.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	category TEXT NOT NULL DEFAULT 'Uncategorized',
	color TEXT NOT NULL DEFAULT '#8B5CF6',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date
	ON transactions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS user_balances (
	user_id TEXT PRIMARY KEY,
	balance DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id TEXT PRIMARY KEY,
	default_currency TEXT NOT NULL DEFAULT 'USD',
	report_daily BOOLEAN NOT NULL DEFAULT FALSE,
	report_weekly BOOLEAN NOT NULL DEFAULT FALSE,
	report_monthly BOOLEAN NOT NULL DEFAULT FALSE,
	report_optimization BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// CreateSchema создает таблицы, если их еще нет.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ошибка создания схемы БД: %w", err)
	}
	return nil
}
