package reports

import (
	"time"

	"github.com/smartspendai/smartspend-backend/models"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// FilterByPeriod оставляет транзакции с датой от начала периода до now.
// День — текущая календарная дата; неделя — с последнего понедельника 00:00
// (воскресенье относится к уходящей неделе); месяц — с 1-го числа 00:00.
func FilterByPeriod(transactions []models.Transaction, period Period, now time.Time) []models.Transaction {
	start, ok := periodStart(period, now)
	if !ok {
		return []models.Transaction{}
	}

	filtered := []models.Transaction{}
	for _, t := range transactions {
		if !t.Date.Before(start) && !t.Date.After(now) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func periodStart(period Period, now time.Time) (time.Time, bool) {
	switch period {
	case PeriodDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -offset)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location()), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}
