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

const reservationColumns = `id, resource_id, slot_start, slot_end, customer_ref, status,
		payment_reference, expires_at, processed_at, created_at, updated_at`

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		reservation.ID,
		reservation.ResourceID,
		reservation.SlotStart,
		reservation.SlotEnd,
		reservation.CustomerRef,
		reservation.Status,
		reservation.PaymentReference,
		reservation.ExpiresAt,
		reservation.ProcessedAt,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID.String()),
			zap.String("resource_id", reservation.ResourceID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", reservation.ID.String(), err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return reservation, nil
}

// UpdateStatus persists a status transition. The status guard in the WHERE clause keeps
// a terminal row from being rewritten even if a caller skipped the exclusive section.
func (r *reservationRepository) UpdateStatus(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $2, payment_reference = $3, processed_at = $4, updated_at = $5
		WHERE id = $1 AND status = 'held'
	`

	result, err := r.db.Exec(ctx, query,
		reservation.ID,
		reservation.Status,
		reservation.PaymentReference,
		reservation.ProcessedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID.String()),
			zap.String("status", string(reservation.Status)),
		)
		return fmt.Errorf("update reservation %s status to %s: %w",
			reservation.ID.String(), string(reservation.Status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found or not held", reservation.ID.String())
	}

	return nil
}

func (r *reservationRepository) FindActiveOverlapping(ctx context.Context, slot entity.Slot, now time.Time) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE resource_id = $1 AND status = 'held' AND expires_at > $4
		  AND slot_start < $3 AND slot_end > $2
		ORDER BY slot_start
	`

	reservations, err := r.queryMany(ctx, query, slot.ResourceID, slot.Start, slot.End, now)
	if err != nil {
		r.log.Error("Failed to find overlapping reservations",
			zap.Error(err),
			zap.String("resource_id", slot.ResourceID.String()),
		)
		return nil, fmt.Errorf("find overlapping reservations on %s: %w", slot.ResourceID.String(), err)
	}

	return reservations, nil
}

func (r *reservationRepository) FindLapsedHeld(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'held' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	reservations, err := r.queryMany(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find lapsed reservations", zap.Error(err))
		return nil, fmt.Errorf("find lapsed reservations: %w", err)
	}

	return reservations, nil
}

func (r *reservationRepository) CountByStatus(ctx context.Context) (map[entity.ReservationStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM reservations GROUP BY status`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to count reservations by status", zap.Error(err))
		return nil, fmt.Errorf("count reservations by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.ReservationStatus]int64)
	for rows.Next() {
		var status entity.ReservationStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// DeleteTerminalBefore purges terminal reservations created before cutoff.
// Confirmed rows referenced by a booking are kept.
func (r *reservationRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM reservations
		WHERE status IN ('expired', 'cancelled') AND created_at < $1
	`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to delete old reservations", zap.Error(err), zap.Time("cutoff", cutoff))
		return 0, fmt.Errorf("delete reservations before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	r.log.Info("Old reservations deleted",
		zap.Int64("count", result.RowsAffected()),
		zap.Time("cutoff", cutoff),
	)
	return result.RowsAffected(), nil
}

func (r *reservationRepository) CountTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM reservations
		WHERE status IN ('expired', 'cancelled') AND created_at < $1
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, cutoff).Scan(&count); err != nil {
		r.log.Error("Failed to count old reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return count, nil
}

func (r *reservationRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	return reservations, rows.Err()
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.SlotStart,
		&reservation.SlotEnd,
		&reservation.CustomerRef,
		&reservation.Status,
		&reservation.PaymentReference,
		&reservation.ExpiresAt,
		&reservation.ProcessedAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
