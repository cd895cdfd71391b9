package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartspendai/smartspend-backend/models"
)

const divider = "——————————————\n"

// Report — результат генерации за период. Не сохраняется: строится заново
// при каждом запросе или рассылке.
type Report struct {
	Period        Period     `json:"period"`
	Income        float64    `json:"income"`
	Expenses      float64    `json:"expenses"`
	Balance       float64    `json:"balance"`
	SavingsRate   float64    `json:"savings_rate"`
	TopCategories []Category `json:"top_categories"`
	Health        Health     `json:"health"`
	Text          string     `json:"text"`
}

// Generate строит отчет по списку транзакций и снимку баланса. Суммы
// на входе — в базовой валюте; rate используется только для отображения,
// хранимые значения не меняются. Пустой список транзакций дает отчет
// с нулевыми агрегатами, а не ошибку.
func Generate(transactions []models.Transaction, balance float64, period Period, rate float64, currencySymbol string, now time.Time) Report {
	if rate <= 0 {
		rate = 1
	}

	filtered := FilterByPeriod(transactions, period, now)
	summary := Aggregate(filtered)

	byCategory := make(map[string]float64, len(summary.ExpensesByCategory))
	for category, amount := range summary.ExpensesByCategory {
		byCategory[category] = amount * rate
	}

	report := Report{
		Period:        period,
		Income:        summary.Income * rate,
		Expenses:      summary.Expenses * rate,
		Balance:       balance * rate,
		TopCategories: TopCategories(byCategory, 3),
	}
	report.Health = ClassifyHealth(report.Income, report.Expenses, report.Balance)
	if report.Income > 0 {
		report.SavingsRate = (report.Income - report.Expenses) / report.Income * 100
	}
	report.Text = Render(report, currencySymbol)
	return report
}

// Render собирает детерминированный текст отчета: заголовок, итоги,
// норма сбережений, топ категорий и блок рекомендаций.
func Render(report Report, currencySymbol string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 %s Report\n", periodTitle(report.Period)))
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("💰 Balance: %s %s\n", FormatAmount(report.Balance), currencySymbol))
	b.WriteString(fmt.Sprintf("📈 Income: %s %s\n", FormatAmount(report.Income), currencySymbol))
	b.WriteString(fmt.Sprintf("📉 Expenses: %s %s\n", FormatAmount(report.Expenses), currencySymbol))

	if report.Income > 0 {
		b.WriteString(fmt.Sprintf("💵 Savings Rate: %.1f%%\n", report.SavingsRate))
	}

	if len(report.TopCategories) > 0 {
		b.WriteString(divider)
		b.WriteString("🏷️ Top Categories:\n")
		for i, c := range report.TopCategories {
			b.WriteString(fmt.Sprintf("%d. %s: %s %s (%.1f%%)\n", i+1, c.Name, FormatAmount(c.Amount), currencySymbol, c.Percentage))
		}
	}

	b.WriteString(divider)
	if report.Income > 0 && report.Expenses/report.Income > 0.8 {
		b.WriteString("⚠️ High spending level detected\n")
	}

	var coverage float64
	if report.Expenses > 0 {
		coverage = report.Balance / report.Expenses
	}
	if coverage < 3 {
		b.WriteString(fmt.Sprintf("ℹ️ Emergency fund covers %.1f months\n", coverage))
	}

	for _, c := range report.TopCategories {
		switch {
		case c.Percentage > 50:
			b.WriteString(fmt.Sprintf("• ⚠️ Высокие траты: %s (%.1f%% расходов)\n", c.Name, c.Percentage))
		case c.Percentage > 30:
			b.WriteString(fmt.Sprintf("• 💡 Умеренные траты: %s (%.1f%% расходов)\n", c.Name, c.Percentage))
		default:
			b.WriteString(fmt.Sprintf("• ✅ Хороший контроль: %s (%.1f%% расходов)\n", c.Name, c.Percentage))
		}
	}

	b.WriteString(report.Health.Message + "\n")
	return b.String()
}

// GenerateOptimization — отчет по оптимизации расходов за текущий месяц:
// топ категорий и советы по экономии.
func GenerateOptimization(transactions []models.Transaction, rate float64, currencySymbol string, now time.Time) string {
	if rate <= 0 {
		rate = 1
	}

	filtered := FilterByPeriod(transactions, PeriodMonth, now)
	summary := Aggregate(filtered)

	byCategory := make(map[string]float64, len(summary.ExpensesByCategory))
	for category, amount := range summary.ExpensesByCategory {
		byCategory[category] = amount * rate
	}
	top := TopCategories(byCategory, 3)

	var b strings.Builder
	b.WriteString("📊 Optimization Report\n")
	b.WriteString(divider)

	if len(top) == 0 {
		b.WriteString("Расходов за этот месяц нет.\n")
	} else {
		b.WriteString("🏷️ Top Categories:\n")
		for i, c := range top {
			b.WriteString(fmt.Sprintf("%d. %s: %s %s (%.1f%%)\n", i+1, c.Name, FormatAmount(c.Amount), currencySymbol, c.Percentage))
		}
	}

	b.WriteString("\n💡 Советы по экономии:\n")
	b.WriteString("• 📝 Ведите учет расходов\n")
	b.WriteString("• 🛒 Планируйте покупки заранее\n")
	b.WriteString("• 🏦 Откладывайте часть дохода\n")
	return b.String()
}

// FormatAmount округляет сумму до двух знаков только для отображения;
// хранимые значения сохраняют полную точность.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func periodTitle(period Period) string {
	switch period {
	case PeriodDay:
		return "Daily"
	case PeriodWeek:
		return "Weekly"
	case PeriodMonth:
		return "Monthly"
	default:
		return string(period)
	}
}
