package memory

import (
	"context"
	"fmt"

	"slot-booking/internal/data/entity"
)

type paymentConfirmationRepository struct {
	s  *Store
	tx *txState
}

// Claim takes the reference's lock for the rest of the transaction, so a concurrent
// claimant waits until the first one commits or rolls back.
func (r *paymentConfirmationRepository) Claim(ctx context.Context, confirmation *entity.PaymentConfirmation) (bool, error) {
	if err := r.s.lock(ctx, r.tx, "payment:"+confirmation.PaymentReference); err != nil {
		return false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.confirmations[confirmation.PaymentReference]; ok {
		return false, nil
	}

	r.s.confirmations[confirmation.PaymentReference] = cloneConfirmation(confirmation)
	r.tx.onRollback(func() { delete(r.s.confirmations, confirmation.PaymentReference) })
	return true, nil
}

func (r *paymentConfirmationRepository) Complete(ctx context.Context, confirmation *entity.PaymentConfirmation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.confirmations[confirmation.PaymentReference]
	if !ok || current.CompletedAt != nil {
		return fmt.Errorf("payment confirmation %s not found or already completed", confirmation.PaymentReference)
	}

	previous := cloneConfirmation(current)
	updated := cloneConfirmation(confirmation)
	current.BookingID = updated.BookingID
	current.Outcome = updated.Outcome
	current.CompletedAt = updated.CompletedAt

	r.tx.onRollback(func() { r.s.confirmations[previous.PaymentReference] = previous })
	return nil
}

func (r *paymentConfirmationRepository) FindByReference(ctx context.Context, paymentReference string) (*entity.PaymentConfirmation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	confirmation, ok := r.s.confirmations[paymentReference]
	if !ok {
		return nil, nil
	}
	return cloneConfirmation(confirmation), nil
}
