package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const bookingColumns = `id, reference, reservation_id, resource_id, slot_start, slot_end, customer_ref, confirmed_at`

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.ReservationID,
		booking.ResourceID,
		booking.SlotStart,
		booking.SlotEnd,
		booking.CustomerRef,
		booking.ConfirmedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("reservation_id", booking.ReservationID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, classify(err))
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reservation_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, reservationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by reservation ID",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil, fmt.Errorf("find booking by reservation ID %s: %w", reservationID.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, slot entity.Slot) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE resource_id = $1 AND slot_start < $3 AND slot_end > $2
		ORDER BY slot_start
	`

	bookings, err := r.queryMany(ctx, query, slot.ResourceID, slot.Start, slot.End)
	if err != nil {
		r.log.Error("Failed to find overlapping bookings",
			zap.Error(err),
			zap.String("resource_id", slot.ResourceID.String()),
		)
		return nil, fmt.Errorf("find overlapping bookings on %s: %w", slot.ResourceID.String(), err)
	}

	return bookings, nil
}

func (r *bookingRepository) FindByResource(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE resource_id = $1 AND slot_start < $3 AND slot_end > $2
		ORDER BY slot_start
	`

	bookings, err := r.queryMany(ctx, query, resourceID, from, to)
	if err != nil {
		r.log.Error("Failed to find bookings by resource",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
			zap.Time("from", from),
			zap.Time("to", to),
		)
		return nil, fmt.Errorf("find bookings by resource %s: %w", resourceID.String(), err)
	}

	return bookings, nil
}

func (r *bookingRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.ReservationID,
		&booking.ResourceID,
		&booking.SlotStart,
		&booking.SlotEnd,
		&booking.CustomerRef,
		&booking.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
