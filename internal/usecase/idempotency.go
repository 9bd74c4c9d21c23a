package usecase

import (
	"context"
	"errors"
	"fmt"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyGuard applies an operation at most once per payment reference.
type IdempotencyGuard interface {
	// ProcessOnce must run inside a transaction; repo is the transaction's repository.
	// The claim is taken before op runs, so any lock op takes is ordered after it.
	// When the reference was already processed, op is skipped and the recorded outcome is
	// replayed with duplicate set: the booking, or the error the first delivery failed with.
	// A failure that IsRecordedFailure reports is stored on the claim before it is returned,
	// so the caller must commit for it to stick.
	ProcessOnce(
		ctx context.Context,
		repo *repository.Repository,
		claim *entity.PaymentConfirmation,
		op func(ctx context.Context) (*entity.Booking, error),
	) (booking *entity.Booking, duplicate bool, err error)
}

// IsRecordedFailure reports whether err is a confirmation failure the guard keeps as the
// payment's outcome. Both are final for the reservation, so a redelivery cannot succeed.
func IsRecordedFailure(err error) bool {
	_, ok := failureOutcome(err)
	return ok
}

func failureOutcome(err error) (entity.ConfirmationOutcome, bool) {
	switch {
	case errors.Is(err, ErrExpired):
		return entity.ConfirmationOutcomeExpired, true
	case errors.Is(err, ErrAlreadyTerminal):
		return entity.ConfirmationOutcomeAlreadyTerminal, true
	}
	return "", false
}

type idempotencyGuard struct {
	now Clock
	log *zap.Logger
}

func NewIdempotencyGuard(now Clock, log *zap.Logger) IdempotencyGuard {
	return &idempotencyGuard{
		now: now,
		log: log.With(zap.String("service", "idempotency")),
	}
}

func (g *idempotencyGuard) ProcessOnce(
	ctx context.Context,
	repo *repository.Repository,
	claim *entity.PaymentConfirmation,
	op func(ctx context.Context) (*entity.Booking, error),
) (*entity.Booking, bool, error) {
	won, err := repo.PaymentConfirmation.Claim(ctx, claim)
	if err != nil {
		return nil, false, err
	}

	if !won {
		booking, err := g.recorded(ctx, repo, claim)
		if err != nil {
			return nil, IsRecordedFailure(err), err
		}
		return booking, true, nil
	}

	// Other failures roll the claim back with the transaction, so a later delivery runs again.
	booking, err := op(ctx)
	if err != nil {
		outcome, final := failureOutcome(err)
		if !final {
			return nil, false, err
		}
		if cErr := g.complete(ctx, repo, claim, outcome, nil); cErr != nil {
			return nil, false, cErr
		}
		return nil, false, err
	}

	if err := g.complete(ctx, repo, claim, entity.ConfirmationOutcomeConfirmed, &booking.ID); err != nil {
		return nil, false, err
	}

	return booking, false, nil
}

func (g *idempotencyGuard) complete(
	ctx context.Context,
	repo *repository.Repository,
	claim *entity.PaymentConfirmation,
	outcome entity.ConfirmationOutcome,
	bookingID *uuid.UUID,
) error {
	completedAt := g.now()
	claim.BookingID = bookingID
	claim.Outcome = outcome
	claim.CompletedAt = &completedAt
	return repo.PaymentConfirmation.Complete(ctx, claim)
}

func (g *idempotencyGuard) recorded(ctx context.Context, repo *repository.Repository, claim *entity.PaymentConfirmation) (*entity.Booking, error) {
	record, err := repo.PaymentConfirmation.FindByReference(ctx, claim.PaymentReference)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.IsCompleted() {
		return nil, fmt.Errorf("payment confirmation %s has no recorded outcome", claim.PaymentReference)
	}

	if record.ReservationID != claim.ReservationID {
		g.log.Warn("Payment reference presented for another reservation",
			zap.String("payment_reference", claim.PaymentReference),
			zap.String("recorded_reservation_id", record.ReservationID.String()),
			zap.String("reservation_id", claim.ReservationID.String()),
		)
		return nil, fmt.Errorf("payment %s: %w", claim.PaymentReference, ErrPaymentReferenceReused)
	}

	switch record.Outcome {
	case entity.ConfirmationOutcomeExpired:
		return nil, fmt.Errorf("payment %s recorded as %s: %w", claim.PaymentReference, record.Outcome, ErrExpired)
	case entity.ConfirmationOutcomeAlreadyTerminal:
		return nil, fmt.Errorf("payment %s recorded as %s: %w", claim.PaymentReference, record.Outcome, ErrAlreadyTerminal)
	}

	booking, err := repo.Booking.FindByID(ctx, *record.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s recorded for payment %s: %w", record.BookingID.String(), claim.PaymentReference, ErrNotFound)
	}

	return booking, nil
}
