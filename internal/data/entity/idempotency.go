package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmationOutcome is the recorded result of the first delivery of a payment reference.
type ConfirmationOutcome string

const (
	ConfirmationOutcomeConfirmed       ConfirmationOutcome = "confirmed"
	ConfirmationOutcomeExpired         ConfirmationOutcome = "expired"
	ConfirmationOutcomeAlreadyTerminal ConfirmationOutcome = "already_terminal"
)

// PaymentConfirmation records that a payment reference was processed and what it produced.
// Outcome and CompletedAt stay unset while the first delivery is still in flight. BookingID
// is set only for a confirmed outcome.
type PaymentConfirmation struct {
	PaymentReference string              `db:"payment_reference"`
	ReservationID    uuid.UUID           `db:"reservation_id"`
	BookingID        *uuid.UUID          `db:"booking_id"`
	Outcome          ConfirmationOutcome `db:"outcome"`
	CreatedAt        time.Time           `db:"created_at"`
	CompletedAt      *time.Time          `db:"completed_at"`
}

func (p *PaymentConfirmation) IsCompleted() bool {
	if p.CompletedAt == nil {
		return false
	}
	return p.Outcome != ConfirmationOutcomeConfirmed || p.BookingID != nil
}
