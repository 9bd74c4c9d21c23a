package adaptor

import (
	"encoding/json"
	"net/http"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// RequestSlot handles POST /api/reservations
func (h *BookingHandler) RequestSlot(w http.ResponseWriter, r *http.Request) {
	var req request.RequestSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.RequestSlot(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "request slot")
		return
	}

	utils.ResponseCreated(w, "Slot held", reservation)
}

// AutoAssign handles POST /api/reservations/auto
func (h *BookingHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	var req request.AutoAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.AutoAssign(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "auto assign")
		return
	}

	utils.ResponseCreated(w, "Slot held", reservation)
}

// GetReservation handles GET /api/reservations/{id}
func (h *BookingHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// CancelReservation handles POST /api/reservations/{id}/cancel
func (h *BookingHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.CancelSlot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation cancelled", reservation)
}

// GetStats handles GET /api/stats
func (h *BookingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "get stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}
