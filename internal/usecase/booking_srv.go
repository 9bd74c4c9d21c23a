package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"
	"slot-booking/internal/dto/request"
	"slot-booking/internal/dto/response"
	"slot-booking/pkg/metrics"
	"slot-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	RequestSlot(ctx context.Context, req *request.RequestSlotRequest) (*response.ReservationResponse, error)
	AutoAssign(ctx context.Context, req *request.AutoAssignRequest) (*response.ReservationResponse, error)
	CancelSlot(ctx context.Context, reservationID string) (*response.ReservationResponse, error)
	GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)

	// Payment
	ConfirmPayment(ctx context.Context, req *request.ConfirmPaymentRequest) (*response.ConfirmPaymentResponse, error)

	GetStats(ctx context.Context) (*response.StatsResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	manager ReservationManager
	rec     metrics.Recorder
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, manager ReservationManager, rec metrics.Recorder, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		manager: manager,
		rec:     rec,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) RequestSlot(ctx context.Context, req *request.RequestSlotRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Request slot validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, utils.FormatValidationErrors(errs))
	}

	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource ID format %s", ErrInvalidRequest, req.ResourceID)
	}

	slot, err := entity.NewSlot(resourceID, req.SlotStart, req.SlotEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	reservation, err := s.manager.CreateReservation(ctx, slot, req.CustomerRef, holdMinutes(req.HoldMinutes))
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *bookingService) CancelSlot(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID format %s", ErrInvalidRequest, reservationID)
	}

	reservation, err := s.manager.CancelReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *bookingService) GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID format %s", ErrInvalidRequest, reservationID)
	}

	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get reservation", zap.Error(err), zap.String("reservation_id", reservationID))
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	resp := response.ReservationToResponse(reservation)

	resource, err := s.repo.Resource.FindByID(ctx, reservation.ResourceID)
	if err == nil && resource != nil {
		resp.ResourceCode = resource.Code
	}

	return &resp, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, req *request.ConfirmPaymentRequest) (*response.ConfirmPaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Confirm payment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, utils.FormatValidationErrors(errs))
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID format %s", ErrInvalidRequest, req.ReservationID)
	}

	booking, duplicate, err := s.manager.ConfirmPayment(ctx, reservationID, req.PaymentReference)
	if err != nil {
		return nil, err
	}

	return &response.ConfirmPaymentResponse{
		BookingID:        booking.ID.String(),
		Reference:        booking.Reference,
		ReservationID:    booking.ReservationID.String(),
		PaymentReference: req.PaymentReference,
		Duplicate:        duplicate,
	}, nil
}

func (s *bookingService) GetStats(ctx context.Context) (*response.StatsResponse, error) {
	outcomes, err := s.rec.Snapshot(ctx)
	if err != nil {
		s.log.Error("Failed to read outcome counters", zap.Error(err))
		return nil, fmt.Errorf("read outcome counters: %w", err)
	}

	counts, err := s.repo.Reservation.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	resp := &response.StatsResponse{
		Outcomes:     make(map[string]int64, len(outcomes)),
		Reservations: make(map[string]int64, len(counts)),
	}
	for outcome, n := range outcomes {
		resp.Outcomes[string(outcome)] = n
	}
	for status, n := range counts {
		resp.Reservations[string(status)] = n
	}

	return resp, nil
}

func holdMinutes(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// IsClientError reports whether err was caused by the caller rather than the system.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest, ErrNotFound, ErrConflict, ErrExpired,
		ErrAlreadyTerminal, ErrResourceInactive, ErrPaymentReferenceReused,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
