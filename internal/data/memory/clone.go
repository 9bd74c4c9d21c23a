package memory

import (
	"time"

	"slot-booking/internal/data/entity"
)

func cloneResource(r *entity.Resource) *entity.Resource {
	c := *r
	return &c
}

func cloneReservation(r *entity.Reservation) *entity.Reservation {
	c := *r
	if r.PaymentReference != nil {
		ref := *r.PaymentReference
		c.PaymentReference = &ref
	}
	c.ProcessedAt = cloneTime(r.ProcessedAt)
	return &c
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	return &c
}

func cloneConfirmation(p *entity.PaymentConfirmation) *entity.PaymentConfirmation {
	c := *p
	if p.BookingID != nil {
		id := *p.BookingID
		c.BookingID = &id
	}
	c.CompletedAt = cloneTime(p.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
