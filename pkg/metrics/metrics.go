// Package metrics counts reservation outcomes so operators can see contention and expiry rates.
package metrics

import "context"

type Outcome string

const (
	OutcomeCreated               Outcome = "created"
	OutcomeConfirmed             Outcome = "confirmed"
	OutcomeCancelled             Outcome = "cancelled"
	OutcomeSwept                 Outcome = "swept"
	OutcomeConflict              Outcome = "conflict"
	OutcomeExpired               Outcome = "expired"
	OutcomeAlreadyTerminal       Outcome = "already_terminal"
	OutcomeLockTimeout           Outcome = "lock_timeout"
	OutcomeDuplicateConfirmation Outcome = "duplicate_confirmation"
)

// Recorder accumulates outcome counters. Record must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
	Snapshot(ctx context.Context) (map[Outcome]int64, error)
}
