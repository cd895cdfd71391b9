package database_test

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/smartspendai/smartspend-backend/internal/database"
)

// testStore подключается к тестовой БД; без настроенного окружения
// интеграционные тесты пропускаются.
func testStore(t *testing.T) *database.Store {
	t.Helper()

	_ = godotenv.Load()
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_HOST") == "" {
		t.Skip("БД не настроена: нет DATABASE_URL и DB_HOST")
	}

	pool, err := database.ConnectDB(context.Background())
	if err != nil {
		t.Fatalf("ошибка подключения к БД: %v", err)
	}
	t.Cleanup(pool.Close)

	store := database.NewStore(pool)
	if err := store.CreateSchema(context.Background()); err != nil {
		t.Fatalf("ошибка создания схемы: %v", err)
	}
	return store
}
