package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smartspendai/smartspend-backend/models"
	"github.com/smartspendai/smartspend-backend/utils"
)

type fakeSource struct {
	users        []models.UserSettings
	transactions map[string][]models.Transaction
	balances     map[string]float64

	usersErr       error
	failListFor    string
	failBalanceFor string
}

func (f *fakeSource) UsersWithEnabledReports(_ context.Context) ([]models.UserSettings, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeSource) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	if userID == f.failListFor {
		return nil, errors.New("хранилище недоступно")
	}
	return f.transactions[userID], nil
}

func (f *fakeSource) GetBalance(_ context.Context, userID string) (float64, error) {
	if userID == f.failBalanceFor {
		return 0, errors.New("хранилище недоступно")
	}
	return f.balances[userID], nil
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	sent    []sentMessage
	failFor string
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	if chatID == f.failFor {
		return errors.New("канал доставки недоступен")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newTestDispatcher(source *fakeSource, sender *fakeSender) *Dispatcher {
	d := NewDispatcher(source, sender, utils.NewRateTable(map[string]float64{"RUB": 80, "EUR": 0.92}))
	d.now = func() time.Time { return time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC) }
	return d
}

func monthlyUser(id string) models.UserSettings {
	return models.UserSettings{
		UserID:          id,
		DefaultCurrency: "USD",
		Reports:         models.ReportSettings{Monthly: true},
	}
}

func mayTransactions(userID string) []models.Transaction {
	date := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	return []models.Transaction{
		{UserID: userID, Amount: 1000, Category: "Salary", Date: date},
		{UserID: userID, Amount: -200, Category: "Food", Date: date},
	}
}

func outcomeByUser(results []Result) map[string]Outcome {
	m := map[string]Outcome{}
	for _, r := range results {
		m[r.UserID] = r.Outcome
	}
	return m
}

func TestRunMonthlyDeliversToAll(t *testing.T) {
	source := &fakeSource{
		users: []models.UserSettings{monthlyUser("u1"), monthlyUser("u2")},
		transactions: map[string][]models.Transaction{
			"u1": mayTransactions("u1"),
			"u2": mayTransactions("u2"),
		},
		balances: map[string]float64{"u1": 800, "u2": 800},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	results := d.RunMonthly(context.Background())
	if len(results) != 2 {
		t.Fatalf("ожидали 2 результата, получили %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeDelivered {
			t.Errorf("пользователь %s: получили %s, хотели delivered", r.UserID, r.Outcome)
		}
	}
	if len(sender.sent) != 2 {
		t.Fatalf("ожидали 2 сообщения, получили %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "📊 Monthly Report") {
		t.Errorf("в сообщении нет заголовка отчета:\n%s", sender.sent[0].text)
	}
}

func TestSendFailureIsolatedPerUser(t *testing.T) {
	source := &fakeSource{
		users: []models.UserSettings{monthlyUser("a"), monthlyUser("b"), monthlyUser("c")},
		transactions: map[string][]models.Transaction{
			"a": mayTransactions("a"),
			"b": mayTransactions("b"),
			"c": mayTransactions("c"),
		},
		balances: map[string]float64{"a": 100, "b": 100, "c": 100},
	}
	sender := &fakeSender{failFor: "b"}
	d := newTestDispatcher(source, sender)

	outcomes := outcomeByUser(d.RunMonthly(context.Background()))
	if outcomes["a"] != OutcomeDelivered || outcomes["c"] != OutcomeDelivered {
		t.Errorf("сбой у b не должен затрагивать a и c: %v", outcomes)
	}
	if outcomes["b"] != OutcomeSendFailed {
		t.Errorf("для b ожидали send_failed, получили %s", outcomes["b"])
	}
	if len(sender.sent) != 2 {
		t.Errorf("доставлено должно быть 2 сообщения, получили %d", len(sender.sent))
	}
}

func TestGenerationFailureIsolatedPerUser(t *testing.T) {
	source := &fakeSource{
		users: []models.UserSettings{monthlyUser("a"), monthlyUser("b")},
		transactions: map[string][]models.Transaction{
			"a": mayTransactions("a"),
			"b": mayTransactions("b"),
		},
		balances:       map[string]float64{"a": 100, "b": 100},
		failBalanceFor: "a",
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	outcomes := outcomeByUser(d.RunMonthly(context.Background()))
	if outcomes["a"] != OutcomeGenerationFailed {
		t.Errorf("для a ожидали generation_failed, получили %s", outcomes["a"])
	}
	if outcomes["b"] != OutcomeDelivered {
		t.Errorf("сбой у a не должен затрагивать b: %s", outcomes["b"])
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != "b" {
		t.Errorf("сообщение должно уйти только пользователю b: %+v", sender.sent)
	}
}

func TestDailyRunSkipsWeeklyOnlyUser(t *testing.T) {
	weeklyOnly := models.UserSettings{
		UserID:  "w1",
		Reports: models.ReportSettings{Weekly: true},
	}
	source := &fakeSource{
		users:        []models.UserSettings{weeklyOnly},
		transactions: map[string][]models.Transaction{},
		balances:     map[string]float64{},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	results := d.RunDaily(context.Background())
	if len(results) != 1 || results[0].Outcome != OutcomeSkipped {
		t.Fatalf("пользователь без дневного флага должен быть пропущен: %+v", results)
	}
	if len(sender.sent) != 0 {
		t.Errorf("пропущенному пользователю ничего не отправляется")
	}
}

func TestRunWithNoUsers(t *testing.T) {
	source := &fakeSource{}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	if results := d.RunDaily(context.Background()); results != nil {
		t.Errorf("пустая выборка должна давать nil, получили %+v", results)
	}
	if len(sender.sent) != 0 {
		t.Errorf("без пользователей отправок быть не должно")
	}
}

func TestMonthlyWithOptimizationSendsTwoMessages(t *testing.T) {
	user := models.UserSettings{
		UserID:          "u1",
		DefaultCurrency: "USD",
		Reports:         models.ReportSettings{Monthly: true, Optimization: true},
	}
	source := &fakeSource{
		users:        []models.UserSettings{user},
		transactions: map[string][]models.Transaction{"u1": mayTransactions("u1")},
		balances:     map[string]float64{"u1": 800},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	results := d.RunMonthly(context.Background())
	if results[0].Outcome != OutcomeDelivered {
		t.Fatalf("ожидали delivered, получили %s", results[0].Outcome)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("ожидали 2 сообщения, получили %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "📊 Monthly Report") {
		t.Errorf("первым должен идти ежемесячный отчет:\n%s", sender.sent[0].text)
	}
	if !strings.Contains(sender.sent[1].text, "📊 Optimization Report") {
		t.Errorf("вторым должен идти отчет оптимизации:\n%s", sender.sent[1].text)
	}
}

func TestMonthlyOptimizationOnly(t *testing.T) {
	user := models.UserSettings{
		UserID:  "u1",
		Reports: models.ReportSettings{Optimization: true},
	}
	source := &fakeSource{
		users:        []models.UserSettings{user},
		transactions: map[string][]models.Transaction{"u1": mayTransactions("u1")},
		balances:     map[string]float64{"u1": 800},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	results := d.RunMonthly(context.Background())
	if results[0].Outcome != OutcomeDelivered {
		t.Fatalf("ожидали delivered, получили %s", results[0].Outcome)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("ожидали только отчет оптимизации, получили %d сообщений", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "📊 Optimization Report") {
		t.Errorf("должен уйти именно отчет оптимизации:\n%s", sender.sent[0].text)
	}

	// на дневном тике этот пользователь пропускается
	sender.sent = nil
	daily := d.RunDaily(context.Background())
	if daily[0].Outcome != OutcomeSkipped || len(sender.sent) != 0 {
		t.Errorf("подписка только на оптимизацию не дает дневных отчетов: %+v", daily)
	}
}

func TestDisplayCurrencyConversion(t *testing.T) {
	user := monthlyUser("u1")
	user.DefaultCurrency = "RUB"
	source := &fakeSource{
		users:        []models.UserSettings{user},
		transactions: map[string][]models.Transaction{"u1": mayTransactions("u1")},
		balances:     map[string]float64{"u1": 800},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	d.RunMonthly(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("ожидали 1 сообщение, получили %d", len(sender.sent))
	}
	// 800 USD * 80 = 64000 RUB
	if !strings.Contains(sender.sent[0].text, "💰 Balance: 64000.00 ₽") {
		t.Errorf("суммы должны быть сконвертированы в рубли:\n%s", sender.sent[0].text)
	}
}

func TestUnknownCurrencyFallsBackToBase(t *testing.T) {
	user := monthlyUser("u1")
	user.DefaultCurrency = "KRW" // в таблице курсов нет
	source := &fakeSource{
		users:        []models.UserSettings{user},
		transactions: map[string][]models.Transaction{"u1": mayTransactions("u1")},
		balances:     map[string]float64{"u1": 800},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(source, sender)

	d.RunMonthly(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("ожидали 1 сообщение, получили %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "💰 Balance: 800.00 $") {
		t.Errorf("при неизвестной валюте суммы остаются в базовой:\n%s", sender.sent[0].text)
	}
}
