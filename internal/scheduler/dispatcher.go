package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/smartspendai/smartspend-backend/internal/reports"
	"github.com/smartspendai/smartspend-backend/models"
	"github.com/smartspendai/smartspend-backend/utils"
)

type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// ReportSource — данные, необходимые для построения отчета пользователя.
type ReportSource interface {
	UsersWithEnabledReports(ctx context.Context) ([]models.UserSettings, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetBalance(ctx context.Context, userID string) (float64, error)
}

// Sender — канал доставки отчетов.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Outcome — явный результат обработки одного пользователя, чтобы
// частичные сбои рассылки были проверяемыми данными, а не только строками
// в логе.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeGenerationFailed Outcome = "generation_failed"
	OutcomeSendFailed       Outcome = "send_failed"
)

type Result struct {
	UserID  string
	Cadence Cadence
	Outcome Outcome
	Err     error
}

// Dispatcher рассылает отчеты всем подписанным пользователям. Между
// тиками состояния нет: пропущенный тик (например, из-за рестарта
// процесса) молча пропускает отчет за этот период, повтор — только
// на следующем тике.
type Dispatcher struct {
	source         ReportSource
	sender         Sender
	rates          *utils.RateTable
	perUserTimeout time.Duration
	now            func() time.Time
}

func NewDispatcher(source ReportSource, sender Sender, rates *utils.RateTable) *Dispatcher {
	return &Dispatcher{
		source:         source,
		sender:         sender,
		rates:          rates,
		perUserTimeout: 30 * time.Second,
		now:            time.Now,
	}
}

func (d *Dispatcher) RunDaily(ctx context.Context) []Result   { return d.run(ctx, CadenceDaily) }
func (d *Dispatcher) RunWeekly(ctx context.Context) []Result  { return d.run(ctx, CadenceWeekly) }
func (d *Dispatcher) RunMonthly(ctx context.Context) []Result { return d.run(ctx, CadenceMonthly) }

func (d *Dispatcher) run(ctx context.Context, cadence Cadence) []Result {
	log.Printf("Запуск рассылки отчетов: cadence=%s", cadence)

	users, err := d.source.UsersWithEnabledReports(ctx)
	if err != nil {
		log.Printf("Ошибка получения пользователей для рассылки cadence=%s: %v", cadence, err)
		return nil
	}
	if len(users) == 0 {
		log.Printf("Нет пользователей с включенными отчетами, cadence=%s", cadence)
		return nil
	}

	results := make([]Result, 0, len(users))
	for _, settings := range users {
		results = append(results, d.dispatchOne(ctx, cadence, settings))
	}

	var delivered, failed int
	for _, r := range results {
		switch r.Outcome {
		case OutcomeDelivered:
			delivered++
		case OutcomeGenerationFailed, OutcomeSendFailed:
			failed++
		}
	}
	log.Printf("Рассылка завершена: cadence=%s доставлено=%d ошибок=%d всего=%d", cadence, delivered, failed, len(results))
	return results
}

// dispatchOne обрабатывает одного пользователя независимо от остальных:
// любой сбой фиксируется в результате и не прерывает обход.
func (d *Dispatcher) dispatchOne(parent context.Context, cadence Cadence, settings models.UserSettings) Result {
	result := Result{UserID: settings.UserID, Cadence: cadence}

	// повторная проверка флага на случай, если выборка была шире
	if !enabled(cadence, settings.Reports) {
		result.Outcome = OutcomeSkipped
		return result
	}

	ctx, cancel := context.WithTimeout(parent, d.perUserTimeout)
	defer cancel()

	transactions, err := d.source.ListTransactions(ctx, settings.UserID)
	if err != nil {
		log.Printf("Ошибка получения транзакций user_id=%s cadence=%s: %v", settings.UserID, cadence, err)
		result.Outcome = OutcomeGenerationFailed
		result.Err = err
		return result
	}

	balance, err := d.source.GetBalance(ctx, settings.UserID)
	if err != nil {
		log.Printf("Ошибка получения баланса user_id=%s cadence=%s: %v", settings.UserID, cadence, err)
		result.Outcome = OutcomeGenerationFailed
		result.Err = err
		return result
	}

	rate, symbol := d.displayRate(settings.DefaultCurrency)

	messages := []string{}
	if cadenceFlagEnabled(cadence, settings.Reports) {
		report := reports.Generate(transactions, balance, periodFor(cadence), rate, symbol, d.now())
		messages = append(messages, report.Text)
	}
	if cadence == CadenceMonthly && settings.Reports.Optimization {
		messages = append(messages, reports.GenerateOptimization(transactions, rate, symbol, d.now()))
	}

	for _, text := range messages {
		if err := d.sender.SendMessage(ctx, settings.UserID, text); err != nil {
			// без повторов в рамках тика: следующая попытка — следующий тик
			log.Printf("Ошибка доставки отчета user_id=%s cadence=%s: %v", settings.UserID, cadence, err)
			result.Outcome = OutcomeSendFailed
			result.Err = err
			return result
		}
	}

	result.Outcome = OutcomeDelivered
	return result
}

// enabled: подлежит ли пользователь обработке на данном тике.
// Ежемесячный тик также доставляет отчет по оптимизации.
func enabled(cadence Cadence, r models.ReportSettings) bool {
	if cadenceFlagEnabled(cadence, r) {
		return true
	}
	return cadence == CadenceMonthly && r.Optimization
}

func cadenceFlagEnabled(cadence Cadence, r models.ReportSettings) bool {
	switch cadence {
	case CadenceDaily:
		return r.Daily
	case CadenceWeekly:
		return r.Weekly
	case CadenceMonthly:
		return r.Monthly
	default:
		return false
	}
}

func periodFor(cadence Cadence) reports.Period {
	switch cadence {
	case CadenceDaily:
		return reports.PeriodDay
	case CadenceWeekly:
		return reports.PeriodWeek
	default:
		return reports.PeriodMonth
	}
}

func (d *Dispatcher) displayRate(currency string) (float64, string) {
	if currency == "" || currency == utils.BaseCurrency {
		return 1, CurrencySymbol(utils.BaseCurrency)
	}
	rate, err := d.rates.Rate(currency)
	if err != nil || rate <= 0 {
		log.Printf("Курс для валюты %s недоступен, суммы остаются в базовой валюте: %v", currency, err)
		return 1, CurrencySymbol(utils.BaseCurrency)
	}
	return rate, CurrencySymbol(currency)
}

// CurrencySymbol — символ валюты для текста отчета.
func CurrencySymbol(code string) string {
	switch code {
	case "RUB":
		return "₽"
	case "EUR":
		return "€"
	case "USD":
		return "$"
	default:
		return code
	}
}
