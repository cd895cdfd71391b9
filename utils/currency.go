package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Суммы хранятся только в базовой валюте; все остальные валюты — курсы
// относительно базовой (базовый курс = 1) и используются лишь для отображения.
const BaseCurrency = "USD"

// RateTable — единственное разделяемое изменяемое состояние процесса.
// Таблица заменяется целиком, чтобы читатели не видели частично
// обновленную карту.
type RateTable struct {
	mu        sync.RWMutex
	rates     map[string]float64
	fetchedAt time.Time
	stale     bool
}

func NewRateTable(initial map[string]float64) *RateTable {
	rates := map[string]float64{BaseCurrency: 1}
	for code, rate := range initial {
		if rate > 0 {
			rates[code] = rate
		}
	}
	return &RateTable{rates: rates, fetchedAt: time.Now()}
}

func (rt *RateTable) Rate(currency string) (float64, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	rate, ok := rt.rates[currency]
	if !ok {
		return 0, fmt.Errorf("курс для валюты %s не найден", currency)
	}
	return rate, nil
}

// Snapshot возвращает копию текущей таблицы курсов.
func (rt *RateTable) Snapshot() map[string]float64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	snapshot := make(map[string]float64, len(rt.rates))
	for code, rate := range rt.rates {
		snapshot[code] = rate
	}
	return snapshot
}

// Replace атомарно подменяет всю таблицу и снимает флаг устаревания.
// Курсы <= 0 отбрасываются, базовый курс всегда равен 1.
func (rt *RateTable) Replace(rates map[string]float64) {
	fresh := map[string]float64{BaseCurrency: 1}
	for code, rate := range rates {
		if rate > 0 {
			fresh[code] = rate
		} else {
			log.Printf("Некорректный курс для валюты %s: %.4f, пропущен", code, rate)
		}
	}

	rt.mu.Lock()
	rt.rates = fresh
	rt.fetchedAt = time.Now()
	rt.stale = false
	rt.mu.Unlock()
}

// MarkStale помечает таблицу как устаревшую после неудачного обновления;
// сами курсы остаются последними известными.
func (rt *RateTable) MarkStale() {
	rt.mu.Lock()
	rt.stale = true
	rt.mu.Unlock()
}

func (rt *RateTable) IsStale() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.stale
}

func (rt *RateTable) LastFetched() time.Time {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.fetchedAt
}

// ToDisplay переводит сумму из базовой валюты в валюту отображения.
// Округление — только на этапе форматирования, не здесь.
func ToDisplay(baseAmount float64, currency string, rates map[string]float64) (float64, error) {
	rate, ok := rates[currency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("курс для валюты %s не найден", currency)
	}
	return baseAmount * rate, nil
}

// ToBase переводит сумму из валюты отображения обратно в базовую.
func ToBase(displayAmount float64, currency string, rates map[string]float64) (float64, error) {
	rate, ok := rates[currency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("курс для валюты %s не найден", currency)
	}
	return displayAmount / rate, nil
}

// RateFetcher периодически обновляет таблицу курсов из внешнего источника.
// Жизненный цикл: запуск при старте процесса, периодическая замена таблицы,
// остановка через отмену контекста.
type RateFetcher struct {
	apiURL   string
	client   *http.Client
	table    *RateTable
	interval time.Duration
}

const defaultAPIURL = "https://v6.exchangerate-api.com/v6/latest/" + BaseCurrency

func NewRateFetcher(apiURL string, table *RateTable) *RateFetcher {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &RateFetcher{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		table:    table,
		interval: 1 * time.Hour,
	}
}

// Start запускает фоновое обновление курсов до отмены контекста.
func (f *RateFetcher) Start(ctx context.Context) {
	go func() {
		f.Refresh(ctx)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Refresh(ctx)
			}
		}
	}()
}

// Refresh пытается обновить таблицу. Неудача не фатальна: остаются
// последние известные курсы, таблица помечается устаревшей.
func (f *RateFetcher) Refresh(ctx context.Context) {
	if err := f.fetchOnce(ctx); err != nil {
		log.Printf("Не удалось обновить курсы валют, используется последняя таблица: %v", err)
		f.table.MarkStale()
	}
}

func (f *RateFetcher) fetchOnce(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL, nil)
		if err != nil {
			return fmt.Errorf("ошибка создания запроса курсов: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("Ошибка запроса курсов (попытка %d): %v", attempt, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("источник курсов вернул статус %d", resp.StatusCode)
			log.Printf("Источник курсов вернул статус %d (попытка %d)", resp.StatusCode, attempt)
			continue
		}

		var response struct {
			ConversionRates map[string]float64 `json:"conversion_rates"`
		}
		err = json.NewDecoder(resp.Body).Decode(&response)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			log.Printf("Ошибка разбора ответа источника курсов (попытка %d): %v", attempt, err)
			continue
		}

		if len(response.ConversionRates) == 0 {
			lastErr = errors.New("источник курсов вернул пустую таблицу")
			log.Println(lastErr)
			continue
		}

		f.table.Replace(response.ConversionRates)
		log.Println("Таблица курсов валют успешно обновлена")
		return nil
	}

	return lastErr
}
