package repository

import (
	"context"
	"errors"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockNotAvailable is returned when an exclusive section could not be entered in time,
// or the store aborted the transaction because of a serialization conflict. Callers may retry.
var ErrLockNotAvailable = errors.New("lock not available")

// ErrDuplicate is returned when a unique key (resource code, booking slot) is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ErrTxRequired is returned by lock operations invoked outside WithinTx.
var ErrTxRequired = errors.New("operation requires a transaction")

type ResourceRepository interface {
	Create(ctx context.Context, resource *entity.Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*entity.Resource, error)

	// Lock enters the resource's exclusive section for the rest of the transaction.
	// Returns nil, nil when the resource does not exist.
	Lock(ctx context.Context, id uuid.UUID) (*entity.Resource, error)
}

// ReservationRepository is the reservation ledger.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	UpdateStatus(ctx context.Context, reservation *entity.Reservation) error

	// Business queries
	FindActiveOverlapping(ctx context.Context, slot entity.Slot, now time.Time) ([]*entity.Reservation, error)
	FindLapsedHeld(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
	CountByStatus(ctx context.Context) (map[entity.ReservationStatus]int64, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BookingRepository is the resource timeline.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Booking, error)

	// Business queries
	FindOverlapping(ctx context.Context, slot entity.Slot) ([]*entity.Booking, error)
	FindByResource(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*entity.Booking, error)
}

// PaymentConfirmationRepository is the idempotency index keyed by payment reference.
type PaymentConfirmationRepository interface {
	// Claim inserts an in-flight record for the reference. It blocks while another
	// transaction holds an uncommitted claim on the same reference and returns false
	// when a record already exists.
	Claim(ctx context.Context, confirmation *entity.PaymentConfirmation) (bool, error)
	Complete(ctx context.Context, confirmation *entity.PaymentConfirmation) error
	FindByReference(ctx context.Context, paymentReference string) (*entity.PaymentConfirmation, error)
}

// Transactor runs fn inside one transaction. The Repository passed to fn is bound to it;
// every write made through it commits or rolls back together, and locks taken through it
// are held until fn returns.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error
}

type Repository struct {
	Resource            ResourceRepository
	Reservation         ReservationRepository
	Booking             BookingRepository
	PaymentConfirmation PaymentConfirmationRepository

	// Tx is nil on repositories handed out inside a transaction.
	Tx Transactor
}

func NewRepository(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgTransactor{db: db, lockTimeout: lockTimeout, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Resource:            NewResourceRepository(q, log),
		Reservation:         NewReservationRepository(q, log),
		Booking:             NewBookingRepository(q, log),
		PaymentConfirmation: NewPaymentConfirmationRepository(q, log),
	}
}
