package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *entity.Resource) {
	t.Helper()

	s := NewStore(50*time.Millisecond, zap.NewNop())
	resources, err := s.Seed(context.Background(), "BAY1:Bay One", t0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, resources[0]
}

func heldReservation(resourceID uuid.UUID, start, end time.Time) *entity.Reservation {
	return &entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: t0, UpdatedAt: t0},
		ResourceID:   resourceID,
		SlotStart:    start,
		SlotEnd:      end,
		CustomerRef:  "C1",
		Status:       entity.ReservationStatusHeld,
		ExpiresAt:    t0.Add(10 * time.Minute),
	}
}

func TestSeed_ParsesCodesAndNames(t *testing.T) {
	s := NewStore(0, zap.NewNop())
	created, err := s.Seed(context.Background(), " BAY2:Bay Two, BAY1 ,,", t0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(created))
	}

	all, _ := s.Repository().Resource.FindAll(context.Background(), true)
	if all[0].Code != "BAY1" || all[0].Name != "BAY1" || all[1].Name != "Bay Two" {
		t.Fatalf("unexpected resources: %+v %+v", all[0], all[1])
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s, bay := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	res := heldReservation(bay.ID, t0, t0.Add(time.Hour))
	err := s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		if err := repo.Reservation.Create(ctx, res); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.Repository().Reservation.FindByID(ctx, res.ID)
	if got != nil {
		t.Fatalf("expected reservation to be rolled back")
	}
}

func TestWithinTx_RollbackRestoresStatus(t *testing.T) {
	s, bay := newTestStore(t)
	ctx := context.Background()

	res := heldReservation(bay.ID, t0, t0.Add(time.Hour))
	if err := s.Repository().Reservation.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}

	_ = s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		updated := *res
		updated.Status = entity.ReservationStatusCancelled
		if err := repo.Reservation.UpdateStatus(ctx, &updated); err != nil {
			t.Fatalf("update: %v", err)
		}
		return errors.New("abort")
	})

	got, _ := s.Repository().Reservation.FindByID(ctx, res.ID)
	if got.Status != entity.ReservationStatusHeld {
		t.Fatalf("expected held after rollback, got %s", got.Status)
	}
}

func TestLock_RequiresTx(t *testing.T) {
	s, bay := newTestStore(t)

	_, err := s.Repository().Resource.Lock(context.Background(), bay.ID)
	if !errors.Is(err, repository.ErrTxRequired) {
		t.Fatalf("expected ErrTxRequired, got %v", err)
	}
}

func TestLock_TimesOutWhileHeld(t *testing.T) {
	s, bay := newTestStore(t)
	ctx := context.Background()

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
			if _, err := repo.Resource.Lock(ctx, bay.ID); err != nil {
				t.Errorf("lock: %v", err)
			}
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked

	err := s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		_, err := repo.Resource.Lock(ctx, bay.ID)
		return err
	})
	close(done)

	if !errors.Is(err, repository.ErrLockNotAvailable) {
		t.Fatalf("expected ErrLockNotAvailable, got %v", err)
	}
}

func TestLock_ReentrantAndMissingResource(t *testing.T) {
	s, bay := newTestStore(t)

	err := s.WithinTx(context.Background(), func(ctx context.Context, repo *repository.Repository) error {
		if _, err := repo.Resource.Lock(ctx, bay.ID); err != nil {
			return err
		}
		if _, err := repo.Resource.Lock(ctx, bay.ID); err != nil {
			return err
		}
		missing, err := repo.Resource.Lock(ctx, uuid.New())
		if err != nil {
			return err
		}
		if missing != nil {
			t.Errorf("expected nil for unknown resource")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClaim_SecondClaimantWaitsForFirst(t *testing.T) {
	s, bay := newTestStore(t)
	s.lockTimeout = time.Second
	ctx := context.Background()

	claim := func() *entity.PaymentConfirmation {
		return &entity.PaymentConfirmation{PaymentReference: "pay_1", ReservationID: bay.ID, CreatedAt: t0}
	}

	claimed := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
			won, err := repo.PaymentConfirmation.Claim(ctx, claim())
			if err != nil || !won {
				t.Errorf("first claim: won=%v err=%v", won, err)
			}
			close(claimed)
			<-release
			return errors.New("operation failed")
		})
	}()
	<-claimed

	var wg sync.WaitGroup
	wg.Add(1)
	var won bool
	var err error
	go func() {
		defer wg.Done()
		err = s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
			var claimErr error
			won, claimErr = repo.PaymentConfirmation.Claim(ctx, claim())
			return claimErr
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !won {
		t.Fatalf("expected second claimant to win after first rolled back")
	}
}

func TestClaim_DuplicateAfterCommit(t *testing.T) {
	s, bay := newTestStore(t)
	ctx := context.Background()

	for i, want := range []bool{true, false} {
		err := s.WithinTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
			won, err := repo.PaymentConfirmation.Claim(ctx, &entity.PaymentConfirmation{
				PaymentReference: "pay_2", ReservationID: bay.ID, CreatedAt: t0,
			})
			if won != want {
				t.Errorf("claim %d: expected won=%v", i, want)
			}
			return err
		})
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
}

func TestBookingCreate_RejectsOverlap(t *testing.T) {
	s, bay := newTestStore(t)
	repo := s.Repository()
	ctx := context.Background()

	first := &entity.Booking{
		ID: uuid.New(), Reference: "BOOK-1", ReservationID: uuid.New(), ResourceID: bay.ID,
		SlotStart: t0, SlotEnd: t0.Add(time.Hour), ConfirmedAt: t0,
	}
	if err := repo.Booking.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	overlapping := *first
	overlapping.ID = uuid.New()
	overlapping.Reference = "BOOK-2"
	overlapping.ReservationID = uuid.New()
	overlapping.SlotStart = t0.Add(30 * time.Minute)
	overlapping.SlotEnd = t0.Add(90 * time.Minute)
	if err := repo.Booking.Create(ctx, &overlapping); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for overlap, got %v", err)
	}

	adjacent := overlapping
	adjacent.SlotStart = t0.Add(time.Hour)
	adjacent.SlotEnd = t0.Add(2 * time.Hour)
	if err := repo.Booking.Create(ctx, &adjacent); err != nil {
		t.Fatalf("adjacent booking should be accepted: %v", err)
	}

	got, _ := repo.Booking.FindByResource(ctx, bay.ID, t0, t0.Add(24*time.Hour))
	if len(got) != 2 || got[0].Reference != "BOOK-1" {
		t.Fatalf("unexpected timeline: %+v", got)
	}
}

func TestBookingCreate_RejectsDuplicateReference(t *testing.T) {
	s, bay := newTestStore(t)
	repo := s.Repository()
	ctx := context.Background()

	first := &entity.Booking{
		ID: uuid.New(), Reference: "BOOK-20260302-100000-0A1B2C3D", ReservationID: uuid.New(), ResourceID: bay.ID,
		SlotStart: t0, SlotEnd: t0.Add(time.Hour), ConfirmedAt: t0,
	}
	if err := repo.Booking.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Different reservation and slot, same printed reference.
	clash := *first
	clash.ID = uuid.New()
	clash.ReservationID = uuid.New()
	clash.SlotStart = t0.Add(3 * time.Hour)
	clash.SlotEnd = t0.Add(4 * time.Hour)
	if err := repo.Booking.Create(ctx, &clash); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, _ := repo.Booking.FindByResource(ctx, bay.ID, t0, t0.Add(24*time.Hour))
	if len(got) != 1 {
		t.Fatalf("expected only the first booking, got %d", len(got))
	}
}

func TestReservation_ActiveOverlapIgnoresLapsed(t *testing.T) {
	s, bay := newTestStore(t)
	repo := s.Repository()
	ctx := context.Background()

	res := heldReservation(bay.ID, t0, t0.Add(time.Hour))
	if err := repo.Reservation.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}

	slot := entity.Slot{ResourceID: bay.ID, Start: t0.Add(30 * time.Minute), End: t0.Add(2 * time.Hour)}

	active, _ := repo.Reservation.FindActiveOverlapping(ctx, slot, t0)
	if len(active) != 1 {
		t.Fatalf("expected 1 active overlap, got %d", len(active))
	}

	active, _ = repo.Reservation.FindActiveOverlapping(ctx, slot, res.ExpiresAt)
	if len(active) != 0 {
		t.Fatalf("expected lapsed hold to be ignored at expires_at")
	}

	lapsed, _ := repo.Reservation.FindLapsedHeld(ctx, res.ExpiresAt, 10)
	if len(lapsed) != 1 {
		t.Fatalf("expected 1 lapsed hold, got %d", len(lapsed))
	}
}

func TestReservation_DeleteTerminalBefore(t *testing.T) {
	s, bay := newTestStore(t)
	repo := s.Repository()
	ctx := context.Background()

	held := heldReservation(bay.ID, t0, t0.Add(time.Hour))
	cancelled := heldReservation(bay.ID, t0.Add(2*time.Hour), t0.Add(3*time.Hour))
	cancelled.Status = entity.ReservationStatusCancelled
	for _, r := range []*entity.Reservation{held, cancelled} {
		if err := repo.Reservation.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cutoff := t0.Add(time.Minute)
	if n, _ := repo.Reservation.CountTerminalBefore(ctx, cutoff); n != 1 {
		t.Fatalf("expected 1 purgeable, got %d", n)
	}
	if n, _ := repo.Reservation.DeleteTerminalBefore(ctx, cutoff); n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}

	counts, _ := repo.Reservation.CountByStatus(ctx)
	if counts[entity.ReservationStatusHeld] != 1 || counts[entity.ReservationStatusCancelled] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
