package models

import "time"

// ReportSettings — включенные типы отчетов пользователя.
type ReportSettings struct {
	Daily        bool `json:"daily"`
	Weekly       bool `json:"weekly"`
	Monthly      bool `json:"monthly"`
	Optimization bool `json:"optimization"`
}

type UserSettings struct {
	UserID          string         `json:"user_id" db:"user_id"`
	DefaultCurrency string         `json:"default_currency" db:"default_currency"`
	Reports         ReportSettings `json:"reports"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}
