package models

import "time"

// Balance — материализованный баланс пользователя; источник истины —
// сумма его транзакций.
type Balance struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Balance   float64   `json:"balance" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
