package utils_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartspendai/smartspend-backend/utils"
)

func TestToDisplayToBaseRoundTrip(t *testing.T) {
	rates := map[string]float64{"USD": 1, "RUB": 80.5, "EUR": 0.92, "JPY": 147.3}

	amounts := []float64{0, 1, 99.99, 1550.37, 123456.78}
	for currency := range rates {
		for _, amount := range amounts {
			display, err := utils.ToDisplay(amount, currency, rates)
			if err != nil {
				t.Fatalf("ToDisplay(%v, %s): %v", amount, currency, err)
			}
			back, err := utils.ToBase(display, currency, rates)
			if err != nil {
				t.Fatalf("ToBase(%v, %s): %v", display, currency, err)
			}
			if diff := math.Abs(back - amount); diff > math.Abs(amount)*1e-6+1e-9 {
				t.Errorf("круговая конвертация %s: %v -> %v -> %v", currency, amount, display, back)
			}
		}
	}
}

func TestToDisplayUnknownCurrency(t *testing.T) {
	rates := map[string]float64{"USD": 1}
	if _, err := utils.ToDisplay(100, "XXX", rates); err == nil {
		t.Errorf("неизвестная валюта должна давать ошибку")
	}
	if _, err := utils.ToBase(100, "XXX", rates); err == nil {
		t.Errorf("неизвестная валюта должна давать ошибку")
	}
}

func TestRateTableReplace(t *testing.T) {
	table := utils.NewRateTable(map[string]float64{"RUB": 80})
	table.MarkStale()

	table.Replace(map[string]float64{"RUB": 85, "EUR": 0.9, "BAD": -5, "ZERO": 0})

	snapshot := table.Snapshot()
	if snapshot["RUB"] != 85 || snapshot["EUR"] != 0.9 {
		t.Errorf("таблица должна быть заменена целиком: %+v", snapshot)
	}
	if _, ok := snapshot["BAD"]; ok {
		t.Errorf("отрицательный курс должен быть отброшен")
	}
	if _, ok := snapshot["ZERO"]; ok {
		t.Errorf("нулевой курс должен быть отброшен")
	}
	if snapshot[utils.BaseCurrency] != 1 {
		t.Errorf("базовый курс всегда равен 1, получили %v", snapshot[utils.BaseCurrency])
	}
	if table.IsStale() {
		t.Errorf("успешная замена должна снимать флаг устаревания")
	}
}

func TestRateTableDropsOldEntriesOnReplace(t *testing.T) {
	table := utils.NewRateTable(map[string]float64{"RUB": 80, "EUR": 0.92})

	table.Replace(map[string]float64{"RUB": 85})

	if _, err := table.Rate("EUR"); err == nil {
		t.Errorf("замена целиком не должна сохранять старые валюты")
	}
}

func TestRateTableMarkStaleKeepsRates(t *testing.T) {
	table := utils.NewRateTable(map[string]float64{"RUB": 80})

	table.MarkStale()

	if !table.IsStale() {
		t.Errorf("таблица должна быть помечена устаревшей")
	}
	rate, err := table.Rate("RUB")
	if err != nil || rate != 80 {
		t.Errorf("последние известные курсы должны сохраняться: %v, %v", rate, err)
	}
}

func TestRateFetcherKeepsOldRatesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := utils.NewRateTable(map[string]float64{"RUB": 80})
	fetcher := utils.NewRateFetcher(srv.URL, table)

	fetcher.Refresh(context.Background())

	if !table.IsStale() {
		t.Errorf("после неудачного обновления таблица должна быть устаревшей")
	}
	rate, err := table.Rate("RUB")
	if err != nil || rate != 80 {
		t.Errorf("старые курсы должны остаться: %v, %v", rate, err)
	}
}

func TestRateFetcherReplacesTableOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"success","conversion_rates":{"USD":1,"RUB":92.5,"EUR":0.91}}`))
	}))
	defer srv.Close()

	table := utils.NewRateTable(map[string]float64{"RUB": 80})
	table.MarkStale()
	fetcher := utils.NewRateFetcher(srv.URL, table)

	fetcher.Refresh(context.Background())

	if table.IsStale() {
		t.Errorf("после успешного обновления флаг устаревания должен быть снят")
	}
	rate, err := table.Rate("RUB")
	if err != nil || rate != 92.5 {
		t.Errorf("курс RUB должен обновиться до 92.5: %v, %v", rate, err)
	}
	if rate, _ := table.Rate("EUR"); rate != 0.91 {
		t.Errorf("курс EUR должен появиться в таблице: %v", rate)
	}
}

func TestRateFetcherRecoversAfterFailure(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"conversion_rates":{"USD":1,"RUB":90}}`))
	}))
	defer srv.Close()

	table := utils.NewRateTable(map[string]float64{"RUB": 80})
	fetcher := utils.NewRateFetcher(srv.URL, table)

	fetcher.Refresh(context.Background())
	if !table.IsStale() {
		t.Fatalf("первое обновление должно провалиться")
	}

	healthy = true
	fetcher.Refresh(context.Background())
	if table.IsStale() {
		t.Errorf("после восстановления источника флаг устаревания должен быть снят")
	}
	if rate, _ := table.Rate("RUB"); rate != 90 {
		t.Errorf("курс должен обновиться до 90, получили %v", rate)
	}
}
