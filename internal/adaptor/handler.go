package adaptor

import (
	"slot-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Resource *ResourceHandler
	Payment  *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Resource: NewResourceHandler(service.Resource, log),
		Payment:  NewPaymentHandler(service.Booking, log),
	}
}
