package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"
	"slot-booking/pkg/metrics"
	"slot-booking/pkg/mq"
	"slot-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHoldDuration = 10 * time.Minute

// Clock returns the current time. Tests replace it to move time forward.
type Clock func() time.Time

// ReservationManager owns every reservation state transition. Each operation runs in one
// transaction holding the resource's exclusive section.
type ReservationManager interface {
	IsFree(ctx context.Context, slot entity.Slot) (bool, error)
	CreateReservation(ctx context.Context, slot entity.Slot, customerRef string, hold time.Duration) (*entity.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID uuid.UUID, paymentReference string) (*entity.Booking, error)
	CancelReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Reservation, error)
	ExpireReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Reservation, error)

	// ConfirmPayment is ConfirmReservation behind the idempotency guard. A redelivery of the
	// payment reference replays the first outcome, a booking or an expired/terminal error.
	ConfirmPayment(ctx context.Context, reservationID uuid.UUID, paymentReference string) (booking *entity.Booking, duplicate bool, err error)
}

type reservationManager struct {
	repo   *repository.Repository
	guard  IdempotencyGuard
	cfg    utils.ReservationConfig
	retry  retryPolicy
	rec    metrics.Recorder
	events EventPublisher
	now    Clock
	log    *zap.Logger
}

func NewReservationManager(
	repo *repository.Repository,
	cfg utils.ReservationConfig,
	rec metrics.Recorder,
	events EventPublisher,
	now Clock,
	log *zap.Logger,
) ReservationManager {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NopPublisher()
	}
	if rec == nil {
		rec = metrics.NewMemoryRecorder()
	}

	return &reservationManager{
		repo:   repo,
		guard:  NewIdempotencyGuard(now, log),
		cfg:    cfg,
		retry:  retryPolicy{retries: cfg.LockRetries, backoff: cfg.LockBackoff},
		rec:    rec,
		events: events,
		now:    func() time.Time { return now().UTC() },
		log:    log.With(zap.String("service", "reservation")),
	}
}

func (m *reservationManager) IsFree(ctx context.Context, slot entity.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var free bool
	err := m.transact(ctx, "check availability", func(ctx context.Context, repo *repository.Repository) error {
		resource, err := repo.Resource.Lock(ctx, slot.ResourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return fmt.Errorf("resource %s: %w", slot.ResourceID.String(), ErrNotFound)
		}

		free, err = isFree(ctx, repo, slot, m.now())
		return err
	})

	return free, err
}

func (m *reservationManager) CreateReservation(ctx context.Context, slot entity.Slot, customerRef string, hold time.Duration) (*entity.Reservation, error) {
	if err := slot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	hold, err := m.holdDuration(hold)
	if err != nil {
		return nil, err
	}

	if slot.Start.Before(m.now()) {
		return nil, fmt.Errorf("%w: slot starts in the past", ErrInvalidRequest)
	}

	var created *entity.Reservation
	err = m.transact(ctx, "create reservation", func(ctx context.Context, repo *repository.Repository) error {
		resource, err := repo.Resource.Lock(ctx, slot.ResourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return fmt.Errorf("resource %s: %w", slot.ResourceID.String(), ErrNotFound)
		}
		if !resource.IsActive {
			return fmt.Errorf("resource %s: %w", resource.Code, ErrResourceInactive)
		}

		now := m.now()
		free, err := isFree(ctx, repo, slot, now)
		if err != nil {
			return err
		}
		if !free {
			return fmt.Errorf("%s %s-%s: %w", resource.Code,
				slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339), ErrConflict)
		}

		reservation := &entity.Reservation{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ResourceID:  slot.ResourceID,
			SlotStart:   slot.Start,
			SlotEnd:     slot.End,
			CustomerRef: customerRef,
			Status:      entity.ReservationStatusHeld,
			ExpiresAt:   now.Add(hold),
		}
		if err := repo.Reservation.Create(ctx, reservation); err != nil {
			return err
		}

		created = reservation
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrConflict) {
			m.log.Warn("Slot conflict",
				zap.String("resource_id", slot.ResourceID.String()),
				zap.Time("slot_start", slot.Start),
				zap.Time("slot_end", slot.End),
				zap.String("customer_ref", customerRef),
			)
			m.record(ctx, metrics.OutcomeConflict)
		}
		return nil, err
	}

	m.record(ctx, metrics.OutcomeCreated)
	m.log.Info("Reservation created",
		zap.String("reservation_id", created.ID.String()),
		zap.String("resource_id", created.ResourceID.String()),
		zap.Time("expires_at", created.ExpiresAt),
	)

	return created, nil
}

func (m *reservationManager) ConfirmReservation(ctx context.Context, reservationID uuid.UUID, paymentReference string) (*entity.Booking, error) {
	var booking *entity.Booking
	err := m.transact(ctx, "confirm reservation", func(ctx context.Context, repo *repository.Repository) error {
		var err error
		booking, err = m.confirmLocked(ctx, repo, reservationID, paymentReference)
		return err
	})
	if err != nil {
		return nil, m.confirmFailed(ctx, reservationID, err)
	}

	m.confirmed(ctx, booking, paymentReference)
	return booking, nil
}

func (m *reservationManager) ConfirmPayment(ctx context.Context, reservationID uuid.UUID, paymentReference string) (*entity.Booking, bool, error) {
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, false, fmt.Errorf("%w: payment reference is required", ErrInvalidRequest)
	}

	var (
		booking   *entity.Booking
		duplicate bool
		failure   error
	)
	err := m.transact(ctx, "confirm payment", func(ctx context.Context, repo *repository.Repository) error {
		claim := &entity.PaymentConfirmation{
			PaymentReference: paymentReference,
			ReservationID:    reservationID,
			CreatedAt:        m.now(),
		}

		var err error
		booking, duplicate, failure = m.guard.ProcessOnce(ctx, repo, claim, func(ctx context.Context) (*entity.Booking, error) {
			return m.confirmLocked(ctx, repo, reservationID, paymentReference)
		})
		if failure != nil && !IsRecordedFailure(failure) {
			err, failure = failure, nil
		}
		// a recorded failure commits so the outcome sticks
		return err
	})
	if err != nil {
		return nil, false, m.confirmFailed(ctx, reservationID, err)
	}

	if duplicate {
		fields := []zap.Field{zap.String("payment_reference", paymentReference)}
		if booking != nil {
			fields = append(fields, zap.String("booking_id", booking.ID.String()))
		} else {
			fields = append(fields, zap.NamedError("recorded", failure))
		}
		m.log.Info("Duplicate payment confirmation", fields...)
		m.record(ctx, metrics.OutcomeDuplicateConfirmation)
		return booking, true, failure
	}

	if failure != nil {
		return nil, false, m.confirmFailed(ctx, reservationID, failure)
	}

	m.confirmed(ctx, booking, paymentReference)
	return booking, false, nil
}

func (m *reservationManager) CancelReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Reservation, error) {
	res, err := m.release(ctx, reservationID, entity.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}

	m.record(ctx, metrics.OutcomeCancelled)
	m.publish(ctx, mq.RKReservationCancelled, releasedEvent(res))
	return res, nil
}

func (m *reservationManager) ExpireReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Reservation, error) {
	res, err := m.release(ctx, reservationID, entity.ReservationStatusExpired)
	if err != nil {
		return nil, err
	}

	m.publish(ctx, mq.RKReservationExpired, releasedEvent(res))
	return res, nil
}

// confirmLocked promotes a HELD, unexpired reservation to a booking. It must run inside a transaction.
func (m *reservationManager) confirmLocked(ctx context.Context, repo *repository.Repository, reservationID uuid.UUID, paymentReference string) (*entity.Booking, error) {
	res, err := lockReservation(ctx, repo, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("reservation %s is %s: %w", reservationID.String(), res.Status, ErrAlreadyTerminal)
	}

	now := m.now()
	if res.IsLapsed(now) {
		return nil, fmt.Errorf("reservation %s expired at %s: %w",
			reservationID.String(), res.ExpiresAt.Format(time.RFC3339), ErrExpired)
	}

	bookingID := uuid.New()
	booking := &entity.Booking{
		ID:            bookingID,
		Reference:     utils.GenerateBookingReference(now, bookingID),
		ReservationID: res.ID,
		ResourceID:    res.ResourceID,
		SlotStart:     res.SlotStart,
		SlotEnd:       res.SlotEnd,
		CustomerRef:   res.CustomerRef,
		ConfirmedAt:   now,
	}
	if err := repo.Booking.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("booking for reservation %s: %w: %w", reservationID.String(), ErrConflict, err)
		}
		return nil, err
	}

	res.Status = entity.ReservationStatusConfirmed
	if paymentReference != "" {
		res.PaymentReference = &paymentReference
	}
	res.ProcessedAt = &now
	res.UpdatedAt = now
	if err := repo.Reservation.UpdateStatus(ctx, res); err != nil {
		return nil, err
	}

	return booking, nil
}

// confirmFailed logs and counts a failed confirmation. A lapsed hold is marked EXPIRED in
// its own transaction since the confirming one has been rolled back.
func (m *reservationManager) confirmFailed(ctx context.Context, reservationID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, ErrExpired):
		m.log.Warn("Confirmation after hold expired", zap.String("reservation_id", reservationID.String()), zap.Error(err))
		m.record(ctx, metrics.OutcomeExpired)

		if _, expErr := m.ExpireReservation(ctx, reservationID); expErr != nil && !errors.Is(expErr, ErrAlreadyTerminal) {
			m.log.Error("Failed to expire lapsed reservation",
				zap.String("reservation_id", reservationID.String()),
				zap.Error(expErr),
			)
		}

	case errors.Is(err, ErrAlreadyTerminal):
		m.log.Warn("Confirmation of processed reservation", zap.String("reservation_id", reservationID.String()), zap.Error(err))
		m.record(ctx, metrics.OutcomeAlreadyTerminal)
	}

	return err
}

func (m *reservationManager) confirmed(ctx context.Context, booking *entity.Booking, paymentReference string) {
	m.record(ctx, metrics.OutcomeConfirmed)
	m.log.Info("Reservation confirmed",
		zap.String("reservation_id", booking.ReservationID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("payment_reference", paymentReference),
	)

	m.publish(ctx, mq.RKBookingConfirmed, mq.BookingConfirmed{
		BookingID:        booking.ID.String(),
		Reference:        booking.Reference,
		ReservationID:    booking.ReservationID.String(),
		ResourceID:       booking.ResourceID.String(),
		CustomerRef:      booking.CustomerRef,
		PaymentReference: paymentReference,
		SlotStart:        booking.SlotStart,
		SlotEnd:          booking.SlotEnd,
		ConfirmedAt:      booking.ConfirmedAt,
	})
}

// release moves a HELD reservation to a terminal status that frees its slot.
func (m *reservationManager) release(ctx context.Context, reservationID uuid.UUID, to entity.ReservationStatus) (*entity.Reservation, error) {
	var released *entity.Reservation
	err := m.transact(ctx, string(to)+" reservation", func(ctx context.Context, repo *repository.Repository) error {
		res, err := lockReservation(ctx, repo, reservationID)
		if err != nil {
			return err
		}
		if res.Status.IsTerminal() {
			return fmt.Errorf("reservation %s is %s: %w", reservationID.String(), res.Status, ErrAlreadyTerminal)
		}

		now := m.now()
		res.Status = to
		res.ProcessedAt = &now
		res.UpdatedAt = now
		if err := repo.Reservation.UpdateStatus(ctx, res); err != nil {
			return err
		}

		released = res
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrAlreadyTerminal) {
			m.log.Warn("Reservation already processed",
				zap.String("reservation_id", reservationID.String()),
				zap.String("target_status", string(to)),
			)
			m.record(ctx, metrics.OutcomeAlreadyTerminal)
		}
		return nil, err
	}

	m.log.Info("Reservation released",
		zap.String("reservation_id", released.ID.String()),
		zap.String("status", string(released.Status)),
	)
	return released, nil
}

// transact runs fn in a transaction, retrying lock contention per the configured policy.
func (m *reservationManager) transact(ctx context.Context, operation string, fn func(ctx context.Context, repo *repository.Repository) error) error {
	err := withLockRetry(ctx, m.retry, func() error {
		return m.repo.Tx.WithinTx(ctx, fn)
	})

	if errors.Is(err, ErrLockTimeout) {
		m.log.Warn("Exclusive section busy", zap.String("operation", operation), zap.Error(err))
		m.record(ctx, metrics.OutcomeLockTimeout)
	}
	return err
}

func (m *reservationManager) holdDuration(requested time.Duration) (time.Duration, error) {
	hold := requested
	if hold <= 0 {
		hold = m.cfg.HoldDuration
	}
	if hold <= 0 {
		hold = defaultHoldDuration
	}
	if m.cfg.MaxHoldDuration > 0 && hold > m.cfg.MaxHoldDuration {
		return 0, fmt.Errorf("%w: hold of %s exceeds maximum %s", ErrInvalidRequest, hold, m.cfg.MaxHoldDuration)
	}
	return hold, nil
}

func (m *reservationManager) record(ctx context.Context, outcome metrics.Outcome) {
	if err := m.rec.Record(ctx, outcome); err != nil {
		m.log.Warn("Failed to record outcome", zap.String("outcome", string(outcome)), zap.Error(err))
	}
}

// publish is best effort; the transition has already committed.
func (m *reservationManager) publish(ctx context.Context, key string, event any) {
	if err := m.events.PublishJSON(ctx, key, event); err != nil {
		m.log.Warn("Failed to publish event", zap.String("routing_key", key), zap.Error(err))
	}
}

// lockReservation enters the exclusive section of the reservation's resource and returns
// the reservation as seen inside it.
func lockReservation(ctx context.Context, repo *repository.Repository, reservationID uuid.UUID) (*entity.Reservation, error) {
	res, err := repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID.String(), ErrNotFound)
	}

	if _, err := repo.Resource.Lock(ctx, res.ResourceID); err != nil {
		return nil, err
	}

	// re-read: a transition may have committed while we waited for the lock
	res, err = repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID.String(), ErrNotFound)
	}

	return res, nil
}

// isFree is the availability check. Callers must hold the slot's resource lock.
func isFree(ctx context.Context, repo *repository.Repository, slot entity.Slot, now time.Time) (bool, error) {
	bookings, err := repo.Booking.FindOverlapping(ctx, slot)
	if err != nil {
		return false, err
	}
	if len(bookings) > 0 {
		return false, nil
	}

	held, err := repo.Reservation.FindActiveOverlapping(ctx, slot, now)
	if err != nil {
		return false, err
	}
	return len(held) == 0, nil
}

func releasedEvent(res *entity.Reservation) mq.ReservationReleased {
	ev := mq.ReservationReleased{
		ReservationID: res.ID.String(),
		ResourceID:    res.ResourceID.String(),
		CustomerRef:   res.CustomerRef,
		Status:        string(res.Status),
		SlotStart:     res.SlotStart,
		SlotEnd:       res.SlotEnd,
	}
	if res.ProcessedAt != nil {
		ev.At = *res.ProcessedAt
	}
	return ev
}
