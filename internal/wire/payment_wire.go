package wire

import (
	"slot-booking/internal/adaptor"
	"slot-booking/pkg/middleware"
	"slot-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// POST /api/webhooks/payment - provider callback, shared token required
	r.With(middleware.WebhookToken(config.Webhook.TokenHash, log)).
		Post("/api/webhooks/payment", paymentHandler.PaymentWebhook)
}
