package repository

import (
	"context"
	"errors"
	"fmt"

	"slot-booking/internal/data/entity"
	"slot-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type paymentConfirmationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentConfirmationRepository(db database.Querier, log *zap.Logger) PaymentConfirmationRepository {
	return &paymentConfirmationRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_confirmation")),
	}
}

// Claim relies on the primary key: a concurrent insert of the same reference waits on the
// first transaction's row lock, then either conflicts (winner committed) or succeeds (winner
// rolled back).
func (r *paymentConfirmationRepository) Claim(ctx context.Context, confirmation *entity.PaymentConfirmation) (bool, error) {
	if !inTx(r.db) {
		return false, ErrTxRequired
	}

	query := `
		INSERT INTO payment_confirmations (payment_reference, reservation_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (payment_reference) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		confirmation.PaymentReference,
		confirmation.ReservationID,
		confirmation.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to claim payment reference",
			zap.Error(err),
			zap.String("payment_reference", confirmation.PaymentReference),
		)
		return false, fmt.Errorf("claim payment reference %s: %w", confirmation.PaymentReference, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentConfirmationRepository) Complete(ctx context.Context, confirmation *entity.PaymentConfirmation) error {
	query := `
		UPDATE payment_confirmations
		SET booking_id = $2, outcome = $3, completed_at = $4
		WHERE payment_reference = $1 AND completed_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		confirmation.PaymentReference,
		confirmation.BookingID,
		confirmation.Outcome,
		confirmation.CompletedAt,
	)
	if err != nil {
		r.log.Error("Failed to complete payment confirmation",
			zap.Error(err),
			zap.String("payment_reference", confirmation.PaymentReference),
			zap.String("outcome", string(confirmation.Outcome)),
		)
		return fmt.Errorf("complete payment confirmation %s: %w", confirmation.PaymentReference, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment confirmation %s not found or already completed", confirmation.PaymentReference)
	}

	return nil
}

func (r *paymentConfirmationRepository) FindByReference(ctx context.Context, paymentReference string) (*entity.PaymentConfirmation, error) {
	query := `
		SELECT payment_reference, reservation_id, booking_id, outcome, created_at, completed_at
		FROM payment_confirmations
		WHERE payment_reference = $1
	`

	var confirmation entity.PaymentConfirmation
	err := r.db.QueryRow(ctx, query, paymentReference).Scan(
		&confirmation.PaymentReference,
		&confirmation.ReservationID,
		&confirmation.BookingID,
		&confirmation.Outcome,
		&confirmation.CreatedAt,
		&confirmation.CompletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment confirmation",
			zap.Error(err),
			zap.String("payment_reference", paymentReference),
		)
		return nil, fmt.Errorf("find payment confirmation %s: %w", paymentReference, err)
	}

	return &confirmation, nil
}
