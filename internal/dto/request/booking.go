package request

import "time"

type RequestSlotRequest struct {
	ResourceID  string    `json:"resource_id" validate:"required,uuid"`
	SlotStart   time.Time `json:"slot_start" validate:"required"`
	SlotEnd     time.Time `json:"slot_end" validate:"required,gtfield=SlotStart"`
	CustomerRef string    `json:"customer_ref" validate:"required,max=100"`
	// HoldMinutes overrides the configured hold duration, capped by HOLD_MAX_DURATION.
	HoldMinutes int `json:"hold_minutes,omitempty" validate:"omitempty,min=1"`
}

// AutoAssignRequest lets the system pick the resource.
type AutoAssignRequest struct {
	SlotStart   time.Time `json:"slot_start" validate:"required"`
	SlotEnd     time.Time `json:"slot_end" validate:"required,gtfield=SlotStart"`
	CustomerRef string    `json:"customer_ref" validate:"required,max=100"`
	HoldMinutes int       `json:"hold_minutes,omitempty" validate:"omitempty,min=1"`
}

type ConfirmPaymentRequest struct {
	ReservationID    string `json:"reservation_id" validate:"required,uuid"`
	PaymentReference string `json:"payment_reference" validate:"required,max=255"`
}
