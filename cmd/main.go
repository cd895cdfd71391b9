package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/smartspendai/smartspend-backend/internal/database"
	"github.com/smartspendai/smartspend-backend/internal/ledger"
	"github.com/smartspendai/smartspend-backend/internal/reports"
	"github.com/smartspendai/smartspend-backend/internal/scheduler"
	"github.com/smartspendai/smartspend-backend/internal/telegram"
	"github.com/smartspendai/smartspend-backend/models"
	"github.com/smartspendai/smartspend-backend/utils"
)

// ScheduleReports запускает три независимых расписания рассылки:
// ежедневное в 9:00, еженедельное по понедельникам в 10:00 и ежемесячное
// 1-го числа в 11:00.
func ScheduleReports(dispatcher *scheduler.Dispatcher) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("0 9 * * *", func() { dispatcher.RunDaily(context.Background()) }); err != nil {
		log.Fatalf("Ошибка настройки CRON-задачи ежедневных отчетов: %v", err)
	}
	if _, err := c.AddFunc("0 10 * * 1", func() { dispatcher.RunWeekly(context.Background()) }); err != nil {
		log.Fatalf("Ошибка настройки CRON-задачи еженедельных отчетов: %v", err)
	}
	if _, err := c.AddFunc("0 11 1 * *", func() { dispatcher.RunMonthly(context.Background()) }); err != nil {
		log.Fatalf("Ошибка настройки CRON-задачи ежемесячных отчетов: %v", err)
	}

	c.Start()
	return c
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "http://localhost:3000" || origin == "http://localhost:3001" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Файл .env не найден, используются переменные окружения: %v", err)
	}

	ctx := context.Background()

	pool, err := database.ConnectDB(ctx)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	defer pool.Close()

	store := database.NewStore(pool)
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("Ошибка создания схемы БД: %v", err)
	}

	// таблица курсов: стартовые значения до первого обновления из внешнего источника
	rates := utils.NewRateTable(map[string]float64{"RUB": 80, "EUR": 0.92})
	fetchCtx, stopFetcher := context.WithCancel(ctx)
	defer stopFetcher()
	utils.NewRateFetcher(os.Getenv("EXCHANGE_API_URL"), rates).Start(fetchCtx)

	bot := telegram.NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"))
	reconciler := ledger.NewReconciler(store)
	dispatcher := scheduler.NewDispatcher(store, bot, rates)

	cronRunner := ScheduleReports(dispatcher)
	defer cronRunner.Stop()

	// наполнение демо-данными для ручной проверки отчетов
	if demoUser := os.Getenv("DEMO_USER_ID"); demoUser != "" {
		utils.GenerateTestTransactions(ctx, reconciler, demoUser, 20)
		utils.GenerateTestSettings(ctx, store, demoUser)
		log.Printf("Демо-данные созданы для user_id=%s", demoUser)
	}

	r := gin.Default()
	r.Use(CORSMiddleware())

	r.GET("/transactions", func(c *gin.Context) {
		transactions, err := store.ListTransactions(c.Request.Context(), c.Query("user_id"))
		if err != nil {
			log.Printf("Ошибка получения транзакций: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения транзакций"})
			return
		}
		c.JSON(http.StatusOK, transactions)
	})

	r.POST("/transactions", func(c *gin.Context) {
		var payload struct {
			UserID   string  `json:"user_id"`
			Amount   float64 `json:"amount"`
			Category string  `json:"category"`
			Color    string  `json:"color"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			log.Printf("Ошибка привязки JSON: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ввод", "details": err.Error()})
			return
		}
		if payload.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан ID пользователя"})
			return
		}

		transaction, err := reconciler.AddTransaction(c.Request.Context(), payload.UserID, payload.Amount, payload.Category, payload.Color)
		if err != nil {
			log.Printf("Ошибка при создании транзакции: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания транзакции"})
			return
		}
		c.JSON(http.StatusCreated, transaction)
	})

	r.PUT("/transactions/:id", func(c *gin.Context) {
		var payload struct {
			Amount float64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ввод"})
			return
		}

		err := reconciler.EditTransaction(c.Request.Context(), c.Param("id"), payload.Amount)
		if err != nil {
			if errors.Is(err, database.ErrTransactionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Транзакция не найдена"})
				return
			}
			log.Printf("Ошибка обновления транзакции: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обновления транзакции"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Транзакция успешно обновлена"})
	})

	r.DELETE("/transactions/:id", func(c *gin.Context) {
		err := reconciler.RemoveTransaction(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, database.ErrTransactionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Транзакция не найдена"})
				return
			}
			log.Printf("Ошибка удаления транзакции: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка удаления транзакции"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Транзакция успешно удалена"})
	})

	r.GET("/balance", func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан ID пользователя"})
			return
		}
		balance, err := store.GetBalance(c.Request.Context(), userID)
		if err != nil {
			log.Printf("Ошибка получения баланса: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения баланса"})
			return
		}
		c.JSON(http.StatusOK, models.Balance{UserID: userID, Balance: balance})
	})

	// ручная корректировка: перезаписывает баланс без пересчета по транзакциям
	r.PUT("/balance", func(c *gin.Context) {
		var payload models.Balance
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ввод"})
			return
		}
		if payload.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан ID пользователя"})
			return
		}
		if err := store.SetBalance(c.Request.Context(), payload.UserID, payload.Balance); err != nil {
			log.Printf("Ошибка обновления баланса: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обновления баланса"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Баланс успешно обновлен"})
	})

	r.GET("/usersettings/:id", func(c *gin.Context) {
		settings, err := store.GetUserSettings(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, database.ErrSettingsNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Настройки пользователя не найдены"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при извлечении настроек пользователя"})
			return
		}
		c.JSON(http.StatusOK, settings)
	})

	r.PUT("/usersettings/:id", func(c *gin.Context) {
		var payload struct {
			DefaultCurrency string `json:"default_currency"`
			Daily           bool   `json:"daily"`
			Weekly          bool   `json:"weekly"`
			Monthly         bool   `json:"monthly"`
			Optimization    bool   `json:"optimization"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные"})
			return
		}

		validCurrencies := map[string]bool{
			"BYN": true, "RUB": true, "PLN": true, "KRW": true,
			"JPY": true, "USD": true, "EUR": true,
		}
		if payload.DefaultCurrency != "" && !validCurrencies[payload.DefaultCurrency] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неподдерживаемая валюта"})
			return
		}

		settings := &models.UserSettings{
			UserID:          c.Param("id"),
			DefaultCurrency: payload.DefaultCurrency,
			Reports: models.ReportSettings{
				Daily:        payload.Daily,
				Weekly:       payload.Weekly,
				Monthly:      payload.Monthly,
				Optimization: payload.Optimization,
			},
		}
		if err := store.UpsertUserSettings(c.Request.Context(), settings); err != nil {
			log.Printf("Ошибка обновления настроек: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обновления настроек пользователя"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Настройки успешно обновлены", "settings": settings})
	})

	r.GET("/rates", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"base":       utils.BaseCurrency,
			"rates":      rates.Snapshot(),
			"stale":      rates.IsStale(),
			"fetched_at": rates.LastFetched(),
		})
	})

	// отчет по запросу, без рассылки
	r.GET("/reports/:user_id", func(c *gin.Context) {
		userID := c.Param("user_id")
		period := reports.Period(c.DefaultQuery("period", string(reports.PeriodMonth)))
		if period != reports.PeriodDay && period != reports.PeriodWeek && period != reports.PeriodMonth {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный период"})
			return
		}

		transactions, err := store.ListTransactions(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения транзакций"})
			return
		}
		balance, err := store.GetBalance(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения баланса"})
			return
		}

		currency := utils.BaseCurrency
		if settings, err := store.GetUserSettings(c.Request.Context(), userID); err == nil {
			currency = settings.DefaultCurrency
		}
		rate := 1.0
		if known, err := rates.Rate(currency); err == nil {
			rate = known
		}

		report := reports.Generate(transactions, balance, period, rate, scheduler.CurrencySymbol(currency), time.Now())
		c.JSON(http.StatusOK, report)
	})

	// триггер рассылки для внешнего планировщика; логика та же, что и у таймера
	r.POST("/reports/run/:cadence", func(c *gin.Context) {
		var results []scheduler.Result
		switch scheduler.Cadence(c.Param("cadence")) {
		case scheduler.CadenceDaily:
			results = dispatcher.RunDaily(c.Request.Context())
		case scheduler.CadenceWeekly:
			results = dispatcher.RunWeekly(c.Request.Context())
		case scheduler.CadenceMonthly:
			results = dispatcher.RunMonthly(c.Request.Context())
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный тип рассылки"})
			return
		}

		summary := map[scheduler.Outcome]int{}
		for _, r := range results {
			summary[r.Outcome]++
		}
		c.JSON(http.StatusOK, gin.H{"total": len(results), "outcomes": summary})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Ошибка при запуске сервера: %v", err)
	}
}
