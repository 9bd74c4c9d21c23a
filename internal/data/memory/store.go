package memory

import (
	"context"
	"sync"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps the ledger, the timeline and the idempotency index in process memory.
// Exclusive sections are per-key semaphores held until the surrounding transaction ends;
// writes made inside a transaction are undone when it fails.
type Store struct {
	mu            sync.RWMutex
	resources     map[uuid.UUID]*entity.Resource
	reservations  map[uuid.UUID]*entity.Reservation
	bookings      map[uuid.UUID]*entity.Booking
	confirmations map[string]*entity.PaymentConfirmation

	locks       *keyLocker
	lockTimeout time.Duration
	log         *zap.Logger
}

func NewStore(lockTimeout time.Duration, log *zap.Logger) *Store {
	return &Store{
		resources:     make(map[uuid.UUID]*entity.Resource),
		reservations:  make(map[uuid.UUID]*entity.Reservation),
		bookings:      make(map[uuid.UUID]*entity.Booking),
		confirmations: make(map[string]*entity.PaymentConfirmation),
		locks:         newKeyLocker(),
		lockTimeout:   lockTimeout,
		log:           log.With(zap.String("store", "memory")),
	}
}

// Repository returns repositories outside any transaction, plus the transactor.
func (s *Store) Repository() *repository.Repository {
	repo := s.bind(nil)
	repo.Tx = s
	return repo
}

func (s *Store) bind(tx *txState) *repository.Repository {
	return &repository.Repository{
		Resource:            &resourceRepository{s: s, tx: tx},
		Reservation:         &reservationRepository{s: s, tx: tx},
		Booking:             &bookingRepository{s: s, tx: tx},
		PaymentConfirmation: &paymentConfirmationRepository{s: s, tx: tx},
	}
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo *repository.Repository) error) (err error) {
	tx := &txState{held: make(map[string]func())}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback(s)
			tx.release()
			panic(p)
		}
		if err != nil {
			tx.rollback(s)
		}
		tx.release()
	}()

	return fn(ctx, s.bind(tx))
}

func (s *Store) lock(ctx context.Context, tx *txState, key string) error {
	if tx == nil {
		return repository.ErrTxRequired
	}
	if _, ok := tx.held[key]; ok {
		return nil
	}

	release, err := s.locks.Acquire(ctx, key, s.lockTimeout)
	if err != nil {
		return err
	}
	tx.held[key] = release
	tx.order = append(tx.order, key)
	return nil
}

type txState struct {
	held  map[string]func()
	order []string
	undo  []func()
}

func (t *txState) onRollback(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

// rollback must run before release so no other transaction observes half-undone state.
func (t *txState) rollback(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txState) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.held[t.order[i]]()
	}
	t.held = nil
	t.order = nil
}
