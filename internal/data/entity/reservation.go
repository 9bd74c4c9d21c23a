package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed out of the status.
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusHeld
}

// Reservation is a provisional, time-limited hold on a slot pending payment.
type Reservation struct {
	BaseNoDelete
	ResourceID       uuid.UUID         `db:"resource_id"`
	SlotStart        time.Time         `db:"slot_start"`
	SlotEnd          time.Time         `db:"slot_end"`
	CustomerRef      string            `db:"customer_ref"`
	Status           ReservationStatus `db:"status"`
	PaymentReference *string           `db:"payment_reference"`
	ExpiresAt        time.Time         `db:"expires_at"`
	ProcessedAt      *time.Time        `db:"processed_at"`
}

func (r *Reservation) Slot() Slot {
	return Slot{ResourceID: r.ResourceID, Start: r.SlotStart, End: r.SlotEnd}
}

// IsLapsed reports whether the hold has run out at now. expires_at itself counts as lapsed.
func (r *Reservation) IsLapsed(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Occupies reports whether the reservation still blocks its slot at now.
func (r *Reservation) Occupies(now time.Time) bool {
	return r.Status == ReservationStatusHeld && !r.IsLapsed(now)
}
