package wire

import (
	"slot-booking/internal/adaptor"
	"slot-booking/pkg/middleware"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	limiter *middleware.LimiterStore,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/reservations", func(r chi.Router) {
		// Holding slots is what clients hammer, so only the writes are rate limited
		r.With(middleware.RateLimit(limiter, config.RateLimit.TrustXFF, log)).Post("/", bookingHandler.RequestSlot)
		r.With(middleware.RateLimit(limiter, config.RateLimit.TrustXFF, log)).Post("/auto", bookingHandler.AutoAssign)

		r.Get("/{id}", bookingHandler.GetReservation)
		r.Post("/{id}/cancel", bookingHandler.CancelReservation)
	})

	// GET /api/stats - outcome counters and reservations per status
	r.Get("/api/stats", bookingHandler.GetStats)
}
