package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"slot-booking/internal/data/entity"

	"github.com/google/uuid"
)

type reservationRepository struct {
	s  *Store
	tx *txState
}

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reservations[reservation.ID]; ok {
		return fmt.Errorf("create reservation %s: duplicate id", reservation.ID)
	}
	if _, ok := r.s.resources[reservation.ResourceID]; !ok {
		return fmt.Errorf("create reservation %s: unknown resource %s", reservation.ID, reservation.ResourceID)
	}

	r.s.reservations[reservation.ID] = cloneReservation(reservation)
	r.tx.onRollback(func() { delete(r.s.reservations, reservation.ID) })
	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reservation, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return cloneReservation(reservation), nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, reservation *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[reservation.ID]
	if !ok || current.Status != entity.ReservationStatusHeld {
		return fmt.Errorf("reservation %s not found or not held", reservation.ID)
	}

	previous := cloneReservation(current)
	current.Status = reservation.Status
	current.PaymentReference = cloneReservation(reservation).PaymentReference
	current.ProcessedAt = cloneTime(reservation.ProcessedAt)
	current.UpdatedAt = reservation.UpdatedAt

	r.tx.onRollback(func() { r.s.reservations[previous.ID] = previous })
	return nil
}

func (r *reservationRepository) FindActiveOverlapping(ctx context.Context, slot entity.Slot, now time.Time) ([]*entity.Reservation, error) {
	return r.filter(func(res *entity.Reservation) bool {
		return res.Occupies(now) && res.Slot().Overlaps(slot)
	}, 0), nil
}

func (r *reservationRepository) FindLapsedHeld(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	found := r.filter(func(res *entity.Reservation) bool {
		return res.Status == entity.ReservationStatusHeld && res.IsLapsed(now)
	}, 0)

	sort.Slice(found, func(i, j int) bool { return found[i].ExpiresAt.Before(found[j].ExpiresAt) })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r *reservationRepository) CountByStatus(ctx context.Context) (map[entity.ReservationStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[entity.ReservationStatus]int64)
	for _, res := range r.s.reservations {
		counts[res.Status]++
	}
	return counts, nil
}

func (r *reservationRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, res := range r.s.reservations {
		if purgeable(res, cutoff) {
			removed := res
			delete(r.s.reservations, id)
			r.tx.onRollback(func() { r.s.reservations[removed.ID] = removed })
			deleted++
		}
	}
	return deleted, nil
}

func (r *reservationRepository) CountTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return int64(len(r.filter(func(res *entity.Reservation) bool { return purgeable(res, cutoff) }, 0))), nil
}

func (r *reservationRepository) filter(keep func(*entity.Reservation) bool, limit int) []*entity.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if keep(res) {
			out = append(out, cloneReservation(res))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SlotStart.Before(out[j].SlotStart) })
	return out
}

func purgeable(res *entity.Reservation, cutoff time.Time) bool {
	return (res.Status == entity.ReservationStatusExpired || res.Status == entity.ReservationStatusCancelled) &&
		res.CreatedAt.Before(cutoff)
}
