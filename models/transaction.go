package models

import "time"

const (
	// DefaultCategory подставляется, если категория не указана
	DefaultCategory = "Uncategorized"
	// DefaultColor подставляется, если цвет не указан
	DefaultColor = "#8B5CF6"
)

type Transaction struct {
	ID       string    `json:"id" db:"id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Amount   float64   `json:"amount" db:"amount"`
	Category string    `json:"category" db:"category"`
	Color    string    `json:"color" db:"color"`
	Date     time.Time `json:"date" db:"created_at"`
}

// Type всегда выводится из знака суммы и отдельно не хранится:
// amount >= 0 — доход, amount < 0 — расход.
func (t Transaction) Type() string {
	if t.Amount >= 0 {
		return "income"
	}
	return "expense"
}
