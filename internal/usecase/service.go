package usecase

import (
	"slot-booking/internal/data/repository"
	"slot-booking/pkg/metrics"
	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Manager  ReservationManager
	Booking  BookingService
	Resource ResourceService
	Recorder metrics.Recorder
}

// NewService wires the usecases. rec, events and now may be nil.
func NewService(
	repo *repository.Repository,
	config *utils.Config,
	rec metrics.Recorder,
	events EventPublisher,
	now Clock,
	log *zap.Logger,
) *Service {
	if rec == nil {
		rec = metrics.NewMemoryRecorder()
	}

	manager := NewReservationManager(repo, config.Reservation, rec, events, now, log)

	return &Service{
		Manager:  manager,
		Booking:  NewBookingService(repo, manager, rec, log),
		Resource: NewResourceService(repo, manager, now, log),
		Recorder: rec,
	}
}
