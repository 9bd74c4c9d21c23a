package mq

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys.
const (
	RKPaymentPaid          = "payment.paid"
	RKBookingConfirmed     = "booking.confirmed"
	RKReservationExpired   = "reservation.expired"
	RKReservationCancelled = "reservation.cancelled"
)

// PaymentPaid is sent by the payment collaborator once a charge for a reservation succeeds.
// It may be delivered more than once.
type PaymentPaid struct {
	ReservationID    string `json:"reservation_id"`
	PaymentReference string `json:"payment_reference"`
}

type BookingConfirmed struct {
	BookingID        string    `json:"booking_id"`
	Reference        string    `json:"reference"`
	ReservationID    string    `json:"reservation_id"`
	ResourceID       string    `json:"resource_id"`
	CustomerRef      string    `json:"customer_ref"`
	PaymentReference string    `json:"payment_reference"`
	SlotStart        time.Time `json:"slot_start"`
	SlotEnd          time.Time `json:"slot_end"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

// ReservationReleased is published for both expired and cancelled holds.
type ReservationReleased struct {
	ReservationID string    `json:"reservation_id"`
	ResourceID    string    `json:"resource_id"`
	CustomerRef   string    `json:"customer_ref"`
	Status        string    `json:"status"`
	SlotStart     time.Time `json:"slot_start"`
	SlotEnd       time.Time `json:"slot_end"`
	At            time.Time `json:"at"`
}

func Unmarshal[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode event: %w", err)
	}
	return v, nil
}
