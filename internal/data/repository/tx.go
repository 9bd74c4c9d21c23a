package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Postgres error codes treated as retryable contention, then constraint violations.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
)

type pgTransactor struct {
	db          database.PgxIface
	lockTimeout time.Duration
	log         *zap.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Warn("Failed to rollback tx", zap.Error(rbErr))
			}
		}
	}()

	if t.lockTimeout > 0 {
		// SET LOCAL does not accept bind parameters
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", classify(err))
		}
	}

	if err = fn(ctx, newRepository(tx, t.log)); err != nil {
		return classify(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}

	return nil
}

// classify maps Postgres contention errors onto ErrLockNotAvailable and unique or exclusion
// violations onto ErrDuplicate, keeping the original in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			if errors.Is(err, ErrLockNotAvailable) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrLockNotAvailable, err)
		case pgUniqueViolation, pgExclusionViolation:
			if errors.Is(err, ErrDuplicate) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}
	return err
}

func inTx(q database.Querier) bool {
	_, ok := q.(pgx.Tx)
	return ok
}
