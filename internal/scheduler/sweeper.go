package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/metrics"

	"go.uber.org/zap"
)

const defaultBatchSize = 100

// Sweeper reclaims HELD reservations whose hold has lapsed. Every reservation is expired
// through the manager, so each one takes its resource's exclusive section on its own.
type Sweeper struct {
	Repo      *repository.Repository
	Manager   usecase.ReservationManager
	Recorder  metrics.Recorder
	Interval  time.Duration
	BatchSize int
	Now       usecase.Clock
	Log       *zap.Logger
}

type SweepOptions struct {
	// DryRun reports what would be expired or purged without changing anything.
	DryRun bool
	// DeleteOld purges EXPIRED and CANCELLED reservations created more than RetentionDays ago.
	DeleteOld     bool
	RetentionDays int
}

type SweepStats struct {
	Lapsed   int
	Expired  int
	Skipped  int
	Failed   int
	Purged   int64
	ByStatus map[entity.ReservationStatus]int64
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	stats, err := s.RunOnce(ctx, SweepOptions{})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.Log.Error("Sweep failed", zap.Error(err))
		}
		return
	}

	if stats.Lapsed > 0 {
		s.Log.Info("Sweep finished",
			zap.Int("lapsed", stats.Lapsed),
			zap.Int("expired", stats.Expired),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
	}
}

// RunOnce performs a single pass.
func (s *Sweeper) RunOnce(ctx context.Context, opts SweepOptions) (*SweepStats, error) {
	stats := &SweepStats{}
	now := s.now()

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for {
		lapsed, err := s.Repo.Reservation.FindLapsedHeld(ctx, now, batchSize)
		if err != nil {
			return stats, fmt.Errorf("find lapsed reservations: %w", err)
		}
		stats.Lapsed += len(lapsed)

		if opts.DryRun {
			for _, res := range lapsed {
				s.Log.Info("Would expire reservation",
					zap.String("reservation_id", res.ID.String()),
					zap.Time("expires_at", res.ExpiresAt),
				)
			}
			break
		}

		expired := 0
		for _, res := range lapsed {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			_, err := s.Manager.ExpireReservation(ctx, res.ID)
			switch {
			case err == nil:
				expired++
				s.record(ctx, metrics.OutcomeSwept)
			case errors.Is(err, usecase.ErrAlreadyTerminal), errors.Is(err, usecase.ErrNotFound):
				// confirmed or cancelled since it was selected
				stats.Skipped++
			default:
				stats.Failed++
				s.Log.Error("Failed to expire reservation",
					zap.String("reservation_id", res.ID.String()),
					zap.Error(err),
				)
			}
		}
		stats.Expired += expired

		// a short batch is the last one; a batch with no progress would repeat forever
		if len(lapsed) < batchSize || expired == 0 {
			break
		}
	}

	if opts.DeleteOld {
		purged, err := s.purge(ctx, now, opts)
		if err != nil {
			return stats, err
		}
		stats.Purged = purged
	}

	byStatus, err := s.Repo.Reservation.CountByStatus(ctx)
	if err != nil {
		return stats, fmt.Errorf("count reservations: %w", err)
	}
	stats.ByStatus = byStatus

	return stats, nil
}

func (s *Sweeper) purge(ctx context.Context, now time.Time, opts SweepOptions) (int64, error) {
	days := opts.RetentionDays
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}
	cutoff := now.AddDate(0, 0, -days)

	if opts.DryRun {
		n, err := s.Repo.Reservation.CountTerminalBefore(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("count old reservations: %w", err)
		}
		return n, nil
	}

	n, err := s.Repo.Reservation.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old reservations: %w", err)
	}
	return n, nil
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Sweeper) record(ctx context.Context, outcome metrics.Outcome) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(ctx, outcome); err != nil {
		s.Log.Warn("Failed to record outcome", zap.String("outcome", string(outcome)), zap.Error(err))
	}
}
