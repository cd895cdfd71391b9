package reports

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

type Health struct {
	Score   int          `json:"score"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message"`
}

// ClassifyHealth — таблица правил оценки финансового состояния.
// Пороги фиксированы: coverage (месяцы запаса) = balance / expenses,
// expenseRatio = expenses / income с отдельной веткой для нулевого дохода.
func ClassifyHealth(income, expenses, balance float64) Health {
	var coverage float64
	if expenses > 0 {
		coverage = balance / expenses
	}

	if income == 0 {
		if expenses > 0 {
			return Health{
				Score:   30,
				Status:  StatusCritical,
				Message: "Доходы отсутствуют, а расходы продолжаются. Необходимо срочно найти источник дохода.",
			}
		}
		return Health{
			Score:   80,
			Status:  StatusHealthy,
			Message: "Операций пока нет. Добавьте доходы и расходы, чтобы увидеть анализ.",
		}
	}

	expenseRatio := expenses / income
	switch {
	case expenseRatio > 1:
		return Health{
			Score:   30,
			Status:  StatusCritical,
			Message: "Ваши расходы превышают доходы. Необходимо срочно оптимизировать бюджет.",
		}
	case expenseRatio > 0.8:
		if coverage >= 3 {
			return Health{
				Score:   75,
				Status:  StatusWarning,
				Message: "Расходы высокие, но есть финансовая подушка. Рекомендуется сократить расходы.",
			}
		}
		return Health{
			Score:   60,
			Status:  StatusWarning,
			Message: "Ваши расходы близки к доходам, а финансовая подушка недостаточна. Рекомендуется оптимизировать расходы.",
		}
	default:
		switch {
		case coverage >= 6:
			return Health{
				Score:   100,
				Status:  StatusHealthy,
				Message: "Отличное финансовое состояние! У вас хороший баланс доходов/расходов и надежная финансовая подушка.",
			}
		case coverage >= 3:
			return Health{
				Score:   90,
				Status:  StatusHealthy,
				Message: "Хорошее финансовое состояние. Продолжайте накапливать финансовую подушку.",
			}
		default:
			return Health{
				Score:   80,
				Status:  StatusHealthy,
				Message: "Хороший баланс доходов и расходов. Рекомендуется увеличить финансовую подушку.",
			}
		}
	}
}
