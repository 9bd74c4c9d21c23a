package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/dto/request"
	"slot-booking/internal/dto/response"
	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	// noNeighbourGap is the gap in minutes assumed when no booking sits on that side of the slot.
	noNeighbourGap = 24 * 60
	dayUsageWeight = 15
)

type candidate struct {
	resource *entity.Resource
	score    float64
	dayUsage int
}

// AutoAssign reserves the slot on the resource that best fills existing gaps, then balances
// usage across the day. Lower scores win.
func (s *bookingService) AutoAssign(ctx context.Context, req *request.AutoAssignRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Auto assign validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, utils.FormatValidationErrors(errs))
	}

	start, end := req.SlotStart.UTC(), req.SlotEnd.UTC()

	candidates, err := s.rankResources(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var busy error
	for _, c := range candidates {
		slot, err := entity.NewSlot(c.resource.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		reservation, err := s.manager.CreateReservation(ctx, slot, req.CustomerRef, holdMinutes(req.HoldMinutes))
		switch {
		case errors.Is(err, ErrConflict), errors.Is(err, ErrResourceInactive):
			// a hold the ranking can't see, try the next one
			continue
		case errors.Is(err, ErrLockTimeout):
			s.log.Warn("Resource busy, trying next candidate", zap.String("resource", c.resource.Code), zap.Error(err))
			busy = err
			continue
		case err != nil:
			return nil, err
		}

		s.log.Info("Resource auto-assigned",
			zap.String("resource", c.resource.Code),
			zap.Float64("score", c.score),
			zap.Int("day_usage", c.dayUsage),
		)

		resp := response.ReservationToResponse(reservation)
		resp.ResourceCode = c.resource.Code
		return &resp, nil
	}

	// a busy candidate may still free up, so the caller gets a retryable error
	if busy != nil {
		return nil, busy
	}
	return nil, fmt.Errorf("no resource free for %s-%s: %w",
		start.Format(time.RFC3339), end.Format(time.RFC3339), ErrConflict)
}

// rankResources orders active resources without a booking on the slot by score.
func (s *bookingService) rankResources(ctx context.Context, start, end time.Time) ([]candidate, error) {
	resources, err := s.repo.Resource.FindAll(ctx, true)
	if err != nil {
		s.log.Error("Failed to list resources", zap.Error(err))
		return nil, fmt.Errorf("list resources: %w", err)
	}

	day := utils.StartOfDay(start)
	window := time.Duration(noNeighbourGap) * time.Minute

	var candidates []candidate
	for _, resource := range resources {
		nearby, err := s.repo.Booking.FindByResource(ctx, resource.ID, start.Add(-window), end.Add(window))
		if err != nil {
			return nil, fmt.Errorf("list bookings for %s: %w", resource.Code, err)
		}

		sameDay, err := s.repo.Booking.FindByResource(ctx, resource.ID, day, day.Add(24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("list bookings for %s: %w", resource.Code, err)
		}

		score, ok := scoreSlot(start, end, nearby, len(sameDay))
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{resource: resource, score: score, dayUsage: len(sameDay)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.dayUsage != b.dayUsage {
			return a.dayUsage < b.dayUsage
		}
		return a.resource.Code < b.resource.Code
	})

	return candidates, nil
}

// scoreSlot returns gap_before + gap_after + 15*dayUsage in minutes, or false when a booking overlaps.
func scoreSlot(start, end time.Time, bookings []*entity.Booking, dayUsage int) (float64, bool) {
	before, after := float64(noNeighbourGap), float64(noNeighbourGap)

	for _, b := range bookings {
		switch {
		case b.SlotStart.Before(end) && start.Before(b.SlotEnd):
			return 0, false
		case !b.SlotEnd.After(start):
			if gap := start.Sub(b.SlotEnd).Minutes(); gap < before {
				before = gap
			}
		default:
			if gap := b.SlotStart.Sub(end).Minutes(); gap < after {
				after = gap
			}
		}
	}

	return before + after + float64(dayUsage*dayUsageWeight), true
}
