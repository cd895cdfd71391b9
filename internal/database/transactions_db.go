package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartspendai/smartspend-backend/models"
)

// ListTransactions возвращает все транзакции пользователя, новые первыми.
// Пустой userID — не ошибка, просто пустой список.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	if userID == "" {
		return []models.Transaction{}, nil
	}

	query := `
		SELECT id, user_id, amount, category, color, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении транзакций: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Color, &t.Date); err != nil {
			return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
		}
		if t.Category == "" {
			t.Category = models.DefaultCategory
		}
		if t.Color == "" {
			t.Color = models.DefaultColor
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при получении транзакций: %w", err)
	}

	return transactions, nil
}

// CreateTransaction сохраняет новую транзакцию. Баланс здесь не меняется.
func (s *Store) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	if transaction.UserID == "" {
		return errors.New("транзакция без владельца не допускается")
	}
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	if transaction.Category == "" {
		transaction.Category = models.DefaultCategory
	}
	if transaction.Color == "" {
		transaction.Color = models.DefaultColor
	}
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}

	query := `
		INSERT INTO transactions (id, user_id, amount, category, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		transaction.ID,
		transaction.UserID,
		transaction.Amount,
		transaction.Category,
		transaction.Color,
		transaction.Date)
	if err != nil {
		return fmt.Errorf("ошибка при добавлении транзакции: %w", err)
	}
	return nil
}

func (s *Store) GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, category, color, created_at
		FROM transactions
		WHERE id = $1`

	transaction := &models.Transaction{}
	err := s.pool.QueryRow(ctx, query, transactionID).Scan(
		&transaction.ID,
		&transaction.UserID,
		&transaction.Amount,
		&transaction.Category,
		&transaction.Color,
		&transaction.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("транзакция с ID %s: %w", transactionID, ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении транзакции: %w", err)
	}

	return transaction, nil
}

// UpdateTransactionAmount перезаписывает только сумму; категория, цвет и дата не трогаются.
func (s *Store) UpdateTransactionAmount(ctx context.Context, transactionID string, amount float64) error {
	query := `
		UPDATE transactions
		SET amount = $1
		WHERE id = $2`

	result, err := s.pool.Exec(ctx, query, amount, transactionID)
	if err != nil {
		return fmt.Errorf("ошибка обновления транзакции: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("транзакция с ID %s: %w", transactionID, ErrTransactionNotFound)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, transactionID string) error {
	query := `
		DELETE FROM transactions
		WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("ошибка удаления транзакции: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("транзакция с ID %s: %w", transactionID, ErrTransactionNotFound)
	}
	return nil
}
