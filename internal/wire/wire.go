// internal/wire/wire.go
package wire

import (
	"net/http"

	"slot-booking/internal/adaptor"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/middleware"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the pieces the server lifecycle has to drive
type App struct {
	Router  *chi.Mux
	Limiter *middleware.LimiterStore
}

// Wiring builds handlers on top of service and mounts every route
func Wiring(service *usecase.Service, config *utils.Config, logger *zap.Logger) *App {
	handler := adaptor.NewHandler(service, logger)

	var limiter *middleware.LimiterStore
	if config.RateLimit.RPS > 0 {
		limiter = middleware.NewLimiterStore(config.RateLimit.RPS, config.RateLimit.Burst, config.RateLimit.IdleTTL)
	}

	router := setupRouter(handler, limiter, config, logger)

	return &App{
		Router:  router,
		Limiter: limiter,
	}
}

// setupRouter configures the chi router
func setupRouter(
	handler *adaptor.Handler,
	limiter *middleware.LimiterStore,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	// Apply routes
	wireReservation(r, handler.Booking, limiter, config, logger)
	wireResource(r, handler.Resource, config, logger)
	wirePayment(r, handler.Payment, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
