package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ResourceHandler struct {
	service usecase.ResourceService
	now     func() time.Time
	log     *zap.Logger
}

func NewResourceHandler(service usecase.ResourceService, log *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		now:     time.Now,
		log:     log.With(zap.String("handler", "resource")),
	}
}

// CreateResource handles POST /api/resources
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req request.CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resource, err := h.service.CreateResource(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create resource")
		return
	}

	utils.ResponseCreated(w, "Resource created", resource)
}

// ListResources handles GET /api/resources?active=true
func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	resources, err := h.service.ListResources(r.Context(), activeOnly)
	if err != nil {
		handleServiceError(h.log, w, err, "list resources")
		return
	}

	utils.ResponseSuccess(w, "success", resources)
}

// ListBookings handles GET /api/resources/{id}/bookings?from=&to=
// The window defaults to the current UTC day.
func (h *ResourceHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from, err := utils.ParseTime(query.Get("from"), utils.StartOfDay(h.now()))
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}
	to, err := utils.ParseTime(query.Get("to"), from.Add(24*time.Hour))
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	timeline, err := h.service.ListBookings(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		handleServiceError(h.log, w, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", timeline)
}

// CheckAvailability handles GET /api/resources/{id}/availability?start=&end=
func (h *ResourceHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("start") == "" || query.Get("end") == "" {
		utils.ResponseBadRequest(w, "start and end are required", nil)
		return
	}

	start, err := utils.ParseTime(query.Get("start"), time.Time{})
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}
	end, err := utils.ParseTime(query.Get("end"), time.Time{})
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		handleServiceError(h.log, w, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}
