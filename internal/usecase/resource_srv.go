package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"
	"slot-booking/internal/dto/request"
	"slot-booking/internal/dto/response"
	"slot-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTimelineWindow bounds ListBookings so one request can't scan the whole table.
const maxTimelineWindow = 31 * 24 * time.Hour

type ResourceService interface {
	CreateResource(ctx context.Context, req *request.CreateResourceRequest) (*response.ResourceResponse, error)
	ListResources(ctx context.Context, activeOnly bool) ([]response.ResourceResponse, error)

	// Timeline
	ListBookings(ctx context.Context, resourceID string, from, to time.Time) (*response.TimelineResponse, error)
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (*response.AvailabilityResponse, error)
}

type resourceService struct {
	repo    *repository.Repository
	manager ReservationManager
	now     Clock
	log     *zap.Logger
}

func NewResourceService(repo *repository.Repository, manager ReservationManager, now Clock, log *zap.Logger) ResourceService {
	if now == nil {
		now = time.Now
	}
	return &resourceService{
		repo:    repo,
		manager: manager,
		now:     now,
		log:     log.With(zap.String("service", "resource")),
	}
}

func (s *resourceService) CreateResource(ctx context.Context, req *request.CreateResourceRequest) (*response.ResourceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create resource validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, utils.FormatValidationErrors(errs))
	}

	now := s.now().UTC()
	resource := &entity.Resource{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}

	if err := s.repo.Resource.Create(ctx, resource); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: resource code %s already exists", ErrConflict, resource.Code)
		}
		s.log.Error("Failed to create resource", zap.Error(err), zap.String("code", resource.Code))
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.log.Info("Resource created", zap.String("resource_id", resource.ID.String()), zap.String("code", resource.Code))

	resp := response.ResourceToResponse(resource)
	return &resp, nil
}

func (s *resourceService) ListResources(ctx context.Context, activeOnly bool) ([]response.ResourceResponse, error) {
	resources, err := s.repo.Resource.FindAll(ctx, activeOnly)
	if err != nil {
		s.log.Error("Failed to list resources", zap.Error(err))
		return nil, fmt.Errorf("list resources: %w", err)
	}

	resp := make([]response.ResourceResponse, 0, len(resources))
	for _, r := range resources {
		resp = append(resp, response.ResourceToResponse(r))
	}
	return resp, nil
}

func (s *resourceService) ListBookings(ctx context.Context, resourceID string, from, to time.Time) (*response.TimelineResponse, error) {
	resource, err := s.findResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidRequest)
	}
	if to.Sub(from) > maxTimelineWindow {
		return nil, fmt.Errorf("%w: window longer than %s", ErrInvalidRequest, maxTimelineWindow)
	}

	bookings, err := s.repo.Booking.FindByResource(ctx, resource.ID, from, to)
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err), zap.String("resource_id", resourceID))
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	resp := &response.TimelineResponse{
		ResourceID: resource.ID.String(),
		From:       from,
		To:         to,
		Bookings:   make([]response.BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, response.BookingToResponse(b))
	}

	return resp, nil
}

func (s *resourceService) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (*response.AvailabilityResponse, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource ID format %s", ErrInvalidRequest, resourceID)
	}

	slot, err := entity.NewSlot(id, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	free, err := s.manager.IsFree(ctx, slot)
	if err != nil {
		return nil, err
	}

	return &response.AvailabilityResponse{
		ResourceID: id.String(),
		SlotStart:  slot.Start,
		SlotEnd:    slot.End,
		Available:  free,
	}, nil
}

func (s *resourceService) findResource(ctx context.Context, resourceID string) (*entity.Resource, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource ID format %s", ErrInvalidRequest, resourceID)
	}

	resource, err := s.repo.Resource.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find resource", zap.Error(err), zap.String("resource_id", resourceID))
		return nil, fmt.Errorf("find resource: %w", err)
	}
	if resource == nil {
		return nil, fmt.Errorf("resource %s: %w", resourceID, ErrNotFound)
	}

	return resource, nil
}
