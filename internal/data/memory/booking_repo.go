package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"

	"github.com/google/uuid"
)

type bookingRepository struct {
	s  *Store
	tx *txState
}

// Create enforces the same constraints as the bookings table: unique reference, one booking
// per reservation and no overlap on a resource.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bookings {
		if existing.Reference == booking.Reference {
			return fmt.Errorf("create booking %s: %w reference", booking.Reference, repository.ErrDuplicate)
		}
		if existing.ReservationID == booking.ReservationID {
			return fmt.Errorf("create booking %s: %w reservation %s", booking.Reference, repository.ErrDuplicate, booking.ReservationID)
		}
		if existing.Slot().Overlaps(booking.Slot()) {
			return fmt.Errorf("create booking %s: %w slot, overlaps booking %s", booking.Reference, repository.ErrDuplicate, existing.Reference)
		}
	}

	r.s.bookings[booking.ID] = cloneBooking(booking)
	r.tx.onRollback(func() { delete(r.s.bookings, booking.ID) })
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	booking, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(booking), nil
}

func (r *bookingRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, booking := range r.s.bookings {
		if booking.ReservationID == reservationID {
			return cloneBooking(booking), nil
		}
	}
	return nil, nil
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, slot entity.Slot) ([]*entity.Booking, error) {
	return r.FindByResource(ctx, slot.ResourceID, slot.Start, slot.End)
}

func (r *bookingRepository) FindByResource(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	window := entity.Slot{ResourceID: resourceID, Start: from, End: to}

	var bookings []*entity.Booking
	for _, booking := range r.s.bookings {
		if booking.Slot().Overlaps(window) {
			bookings = append(bookings, cloneBooking(booking))
		}
	}

	sort.Slice(bookings, func(i, j int) bool { return bookings[i].SlotStart.Before(bookings[j].SlotStart) })
	return bookings, nil
}
