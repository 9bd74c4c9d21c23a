package adaptor

import (
	"encoding/json"
	"net/http"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

// PaymentHandler receives provider callbacks. Providers retry on anything but 2xx,
// so a replayed reference answers 200 with the original booking.
type PaymentHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.BookingService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// PaymentWebhook handles POST /api/webhooks/payment
func (h *PaymentHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.ConfirmPayment(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "confirm payment")
		return
	}

	if result.Duplicate {
		utils.ResponseSuccess(w, "Payment already applied", result)
		return
	}
	utils.ResponseCreated(w, "Booking confirmed", result)
}
