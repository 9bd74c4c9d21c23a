package wire

import (
	"slot-booking/internal/adaptor"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireResource(
	r chi.Router,
	resourceHandler *adaptor.ResourceHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/resources", func(r chi.Router) {
		r.Get("/", resourceHandler.ListResources)
		r.Post("/", resourceHandler.CreateResource)

		// GET /api/resources/{id}/bookings?from=&to= - confirmed timeline
		r.Get("/{id}/bookings", resourceHandler.ListBookings)

		// GET /api/resources/{id}/availability?start=&end=
		r.Get("/{id}/availability", resourceHandler.CheckAvailability)
	})
}
