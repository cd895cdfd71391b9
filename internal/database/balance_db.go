package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

// GetBalance возвращает сохраненный баланс пользователя. Если записи нет,
// баланс вычисляется как сумма всех транзакций, сохраняется и возвращается
// (ленивая инициализация при первом чтении).
func (s *Store) GetBalance(ctx context.Context, userID string) (float64, error) {
	query := `SELECT balance FROM user_balances WHERE user_id = $1`

	var balance float64
	err := s.pool.QueryRow(ctx, query, userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ошибка при получении баланса: %w", err)
	}

	transactions, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка вычисления баланса: %w", err)
	}

	var sum float64
	for _, t := range transactions {
		sum += t.Amount
	}

	if err := s.SetBalance(ctx, userID, sum); err != nil {
		return 0, fmt.Errorf("ошибка сохранения вычисленного баланса: %w", err)
	}

	log.Printf("Баланс для user_id=%s инициализирован по %d транзакциям: %.2f", userID, len(transactions), sum)
	return sum, nil
}

// SetBalance безусловно перезаписывает баланс пользователя.
func (s *Store) SetBalance(ctx context.Context, userID string, amount float64) error {
	if userID == "" {
		return errors.New("баланс без владельца не допускается")
	}

	query := `
		INSERT INTO user_balances (user_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = now()`

	if _, err := s.pool.Exec(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("ошибка обновления баланса: %w", err)
	}
	return nil
}
