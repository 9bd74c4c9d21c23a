package response

import (
	"time"

	"slot-booking/internal/data/entity"
)

type ResourceResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type AvailabilityResponse struct {
	ResourceID string    `json:"resource_id"`
	SlotStart  time.Time `json:"slot_start"`
	SlotEnd    time.Time `json:"slot_end"`
	Available  bool      `json:"available"`
}

type TimelineResponse struct {
	ResourceID string            `json:"resource_id"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	Bookings   []BookingResponse `json:"bookings"`
}

func ResourceToResponse(r *entity.Resource) ResourceResponse {
	return ResourceResponse{
		ID:       r.ID.String(),
		Code:     r.Code,
		Name:     r.Name,
		IsActive: r.IsActive,
	}
}
