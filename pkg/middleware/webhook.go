package middleware

import (
	"net/http"

	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

const WebhookTokenHeader = "X-Webhook-Token"

// WebhookToken only lets through callers presenting the shared provider token.
// With no hash configured every call is refused.
func WebhookToken(tokenHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(WebhookTokenHeader)
			if token == "" {
				utils.ResponseUnauthorized(w, "Missing webhook token")
				return
			}

			if !utils.CheckToken(tokenHash, token) {
				logger.Warn("Invalid webhook token",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseUnauthorized(w, "Invalid webhook token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
