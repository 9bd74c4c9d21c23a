package entity

import (
	"time"

	"github.com/google/uuid"
)

// Booking is the finalized occupancy of a slot, created only by promoting a Reservation.
type Booking struct {
	ID            uuid.UUID `db:"id"`
	Reference     string    `db:"reference"`
	ReservationID uuid.UUID `db:"reservation_id"`
	ResourceID    uuid.UUID `db:"resource_id"`
	SlotStart     time.Time `db:"slot_start"`
	SlotEnd       time.Time `db:"slot_end"`
	CustomerRef   string    `db:"customer_ref"`
	ConfirmedAt   time.Time `db:"confirmed_at"`
}

func (b *Booking) Slot() Slot {
	return Slot{ResourceID: b.ResourceID, Start: b.SlotStart, End: b.SlotEnd}
}
