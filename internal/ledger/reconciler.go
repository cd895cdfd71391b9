package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/smartspendai/smartspend-backend/models"
)

// Store — операции хранилища, необходимые для согласования баланса
// с мутациями транзакций.
type Store interface {
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransactionAmount(ctx context.Context, id string, amount float64) error
	DeleteTransaction(ctx context.Context, id string) error
	GetBalance(ctx context.Context, userID string) (float64, error)
	SetBalance(ctx context.Context, userID string, amount float64) error
}

// Reconciler — единственное место, где мутации транзакций сопровождаются
// корректировкой баланса владельца. Две записи идут последовательно и
// не атомарны: сбой между ними оставляет баланс устаревшим до следующей
// мутации.
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// AddTransaction создает транзакцию и прибавляет ее сумму к балансу владельца.
func (r *Reconciler) AddTransaction(ctx context.Context, userID string, amount float64, category, color string) (*models.Transaction, error) {
	transaction := &models.Transaction{
		UserID:   userID,
		Amount:   amount,
		Category: category,
		Color:    color,
	}

	if err := r.store.CreateTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("ошибка при создании транзакции: %w", err)
	}

	r.applyDelta(ctx, userID, amount)
	return transaction, nil
}

// EditTransaction перезаписывает сумму транзакции и сдвигает баланс владельца
// на разницу между новой и старой суммой.
func (r *Reconciler) EditTransaction(ctx context.Context, transactionID string, newAmount float64) error {
	transaction, err := r.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}

	delta := newAmount - transaction.Amount
	if err := r.store.UpdateTransactionAmount(ctx, transactionID, newAmount); err != nil {
		return err
	}

	r.applyDelta(ctx, transaction.UserID, delta)
	return nil
}

// RemoveTransaction удаляет транзакцию и вычитает ее сумму из баланса владельца.
func (r *Reconciler) RemoveTransaction(ctx context.Context, transactionID string) error {
	transaction, err := r.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := r.store.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}

	r.applyDelta(ctx, transaction.UserID, -transaction.Amount)
	return nil
}

// applyDelta выполняет чтение-изменение-запись баланса. Сбой на этом шаге
// логируется и не прерывает уже выполненную мутацию транзакции: баланс
// разойдется с суммой транзакций до следующего пересчета.
func (r *Reconciler) applyDelta(ctx context.Context, userID string, delta float64) {
	if userID == "" {
		log.Printf("Владелец транзакции не определен, корректировка баланса пропущена")
		return
	}

	current, err := r.store.GetBalance(ctx, userID)
	if err != nil {
		log.Printf("Ошибка получения баланса user_id=%s, корректировка на %.2f пропущена: %v", userID, delta, err)
		return
	}

	if err := r.store.SetBalance(ctx, userID, current+delta); err != nil {
		log.Printf("Ошибка обновления баланса user_id=%s: %v", userID, err)
	}
}
