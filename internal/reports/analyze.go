package reports

import (
	"sort"

	"github.com/smartspendai/smartspend-backend/models"
)

// Summary — агрегаты по списку транзакций: доход (суммы >= 0), расход
// (модули отрицательных сумм) и расходы по категориям.
type Summary struct {
	Income             float64
	Expenses           float64
	ExpensesByCategory map[string]float64
}

func Aggregate(transactions []models.Transaction) Summary {
	summary := Summary{ExpensesByCategory: map[string]float64{}}
	for _, t := range transactions {
		if t.Amount >= 0 {
			summary.Income += t.Amount
		} else {
			abs := -t.Amount
			summary.Expenses += abs
			summary.ExpensesByCategory[t.Category] += abs
		}
	}
	return summary
}

type Category struct {
	Name       string
	Amount     float64
	Percentage float64
}

// TopCategories возвращает n самых затратных категорий по убыванию суммы.
// Процент считается от общих расходов; при нулевых расходах — 0.
func TopCategories(expensesByCategory map[string]float64, n int) []Category {
	var total float64
	for _, amount := range expensesByCategory {
		total += amount
	}

	categories := make([]Category, 0, len(expensesByCategory))
	for name, amount := range expensesByCategory {
		c := Category{Name: name, Amount: amount}
		if total > 0 {
			c.Percentage = amount / total * 100
		}
		categories = append(categories, c)
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Amount != categories[j].Amount {
			return categories[i].Amount > categories[j].Amount
		}
		// при равных суммах порядок фиксируется по имени
		return categories[i].Name < categories[j].Name
	})

	if n >= 0 && n < len(categories) {
		categories = categories[:n]
	}
	return categories
}
