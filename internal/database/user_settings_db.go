package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/smartspendai/smartspend-backend/models"
)

func (s *Store) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT user_id, default_currency, report_daily, report_weekly, report_monthly, report_optimization, updated_at
		FROM user_settings
		WHERE user_id = $1`

	var settings models.UserSettings
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.DefaultCurrency,
		&settings.Reports.Daily,
		&settings.Reports.Weekly,
		&settings.Reports.Monthly,
		&settings.Reports.Optimization,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("настройки для user_id=%s: %w", userID, ErrSettingsNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении настроек пользователя: %w", err)
	}

	return &settings, nil
}

// UpsertUserSettings сохраняет настройки с merge-семантикой: пустая валюта
// не затирает ранее выбранную.
func (s *Store) UpsertUserSettings(ctx context.Context, settings *models.UserSettings) error {
	if settings.UserID == "" {
		return errors.New("настройки без владельца не допускаются")
	}

	currency := settings.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	query := `
		INSERT INTO user_settings (user_id, default_currency, report_daily, report_weekly, report_monthly, report_optimization, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			default_currency = CASE WHEN $7 THEN user_settings.default_currency ELSE EXCLUDED.default_currency END,
			report_daily = EXCLUDED.report_daily,
			report_weekly = EXCLUDED.report_weekly,
			report_monthly = EXCLUDED.report_monthly,
			report_optimization = EXCLUDED.report_optimization,
			updated_at = now()`

	keepCurrency := settings.DefaultCurrency == ""
	_, err := s.pool.Exec(ctx, query,
		settings.UserID,
		currency,
		settings.Reports.Daily,
		settings.Reports.Weekly,
		settings.Reports.Monthly,
		settings.Reports.Optimization,
		keepCurrency,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления настроек пользователя: %w", err)
	}

	log.Printf("Настройки обновлены для user_id=%s", settings.UserID)
	return nil
}

// UsersWithEnabledReports возвращает всех пользователей, у которых включен
// хотя бы один тип отчета.
func (s *Store) UsersWithEnabledReports(ctx context.Context) ([]models.UserSettings, error) {
	query := `
		SELECT user_id, default_currency, report_daily, report_weekly, report_monthly, report_optimization, updated_at
		FROM user_settings
		WHERE report_daily OR report_weekly OR report_monthly OR report_optimization`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей с отчетами: %w", err)
	}
	defer rows.Close()

	users := []models.UserSettings{}
	for rows.Next() {
		var settings models.UserSettings
		if err := rows.Scan(
			&settings.UserID,
			&settings.DefaultCurrency,
			&settings.Reports.Daily,
			&settings.Reports.Weekly,
			&settings.Reports.Monthly,
			&settings.Reports.Optimization,
			&settings.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения настроек пользователя: %w", err)
		}
		users = append(users, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей с отчетами: %w", err)
	}

	return users, nil
}
