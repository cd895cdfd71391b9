package utils

import (
	"context"
	"log"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/smartspendai/smartspend-backend/internal/database"
	"github.com/smartspendai/smartspend-backend/internal/ledger"
	"github.com/smartspendai/smartspend-backend/models"
)

var demoCategories = []struct {
	Name  string
	Color string
}{
	{"Food", "#F59E0B"},
	{"Transport", "#3B82F6"},
	{"Shopping", "#FAC905"},
	{"Entertainment", "#EC4899"},
	{"Health", "#10B981"},
	{"Salary", "#8B5CF6"},
}

// GenerateTestTransactions наполняет аккаунт случайными операциями через
// Reconciler, чтобы баланс оставался согласованным с транзакциями.
func GenerateTestTransactions(ctx context.Context, reconciler *ledger.Reconciler, userID string, numTransactions int) {
	for i := 0; i < numTransactions; i++ {
		category := demoCategories[rand.Intn(len(demoCategories))]

		amount := gofakeit.Price(1, 500)
		if category.Name == "Salary" {
			amount = gofakeit.Price(500, 3000)
		} else {
			amount = -amount // все, кроме зарплаты, — расходы
		}

		_, err := reconciler.AddTransaction(ctx, userID, amount, category.Name, category.Color)
		if err != nil {
			log.Fatalf("ошибка при добавлении транзакции: %v", err)
		}
	}
}

// GenerateTestSettings включает пользователю случайный набор отчетов.
func GenerateTestSettings(ctx context.Context, store *database.Store, userID string) {
	settings := &models.UserSettings{
		UserID:          userID,
		DefaultCurrency: "USD",
		Reports: models.ReportSettings{
			Daily:        gofakeit.Bool(),
			Weekly:       gofakeit.Bool(),
			Monthly:      gofakeit.Bool(),
			Optimization: gofakeit.Bool(),
		},
	}
	if err := store.UpsertUserSettings(ctx, settings); err != nil {
		log.Fatalf("ошибка при сохранении настроек: %v", err)
	}
}
