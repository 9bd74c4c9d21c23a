package response

import (
	"time"

	"slot-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID               string                   `json:"id"`
	ResourceID       string                   `json:"resource_id"`
	ResourceCode     string                   `json:"resource_code,omitempty"`
	SlotStart        time.Time                `json:"slot_start"`
	SlotEnd          time.Time                `json:"slot_end"`
	CustomerRef      string                   `json:"customer_ref"`
	Status           entity.ReservationStatus `json:"status"`
	ExpiresAt        time.Time                `json:"expires_at"`
	PaymentReference *string                  `json:"payment_reference,omitempty"`
	ProcessedAt      *time.Time               `json:"processed_at,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	ReservationID string    `json:"reservation_id"`
	ResourceID    string    `json:"resource_id"`
	SlotStart     time.Time `json:"slot_start"`
	SlotEnd       time.Time `json:"slot_end"`
	CustomerRef   string    `json:"customer_ref"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

type ConfirmPaymentResponse struct {
	BookingID        string `json:"booking_id"`
	Reference        string `json:"reference"`
	ReservationID    string `json:"reservation_id"`
	PaymentReference string `json:"payment_reference"`
	// Duplicate is true when the payment reference had already been applied.
	Duplicate bool `json:"duplicate"`
}

type StatsResponse struct {
	Outcomes     map[string]int64 `json:"outcomes"`
	Reservations map[string]int64 `json:"reservations"`
}

// Helper converters
func ReservationToResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:               r.ID.String(),
		ResourceID:       r.ResourceID.String(),
		SlotStart:        r.SlotStart,
		SlotEnd:          r.SlotEnd,
		CustomerRef:      r.CustomerRef,
		Status:           r.Status,
		ExpiresAt:        r.ExpiresAt,
		PaymentReference: r.PaymentReference,
		ProcessedAt:      r.ProcessedAt,
		CreatedAt:        r.CreatedAt,
	}
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID.String(),
		Reference:     b.Reference,
		ReservationID: b.ReservationID.String(),
		ResourceID:    b.ResourceID.String(),
		SlotStart:     b.SlotStart,
		SlotEnd:       b.SlotEnd,
		CustomerRef:   b.CustomerRef,
		ConfirmedAt:   b.ConfirmedAt,
	}
}
