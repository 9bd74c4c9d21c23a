package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	if got := ClientKey(r, true); got != "1.2.3.4" {
		t.Fatalf("expected first forwarded ip, got %q", got)
	}
	if got := ClientKey(r, false); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	store := NewLimiterStore(0.5, 2, time.Minute)
	h := RateLimit(store, false, zap.NewNop())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/reservations", nil)
		r.RemoteAddr = "10.0.0.1:1000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)

		if w.Code == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "2" {
			t.Fatalf("expected Retry-After 2, got %q", w.Header().Get("Retry-After"))
		}
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// a different client has its own bucket
	r := httptest.NewRequest(http.MethodPost, "/api/reservations", nil)
	r.RemoteAddr = "10.0.0.2:1000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected second client allowed, got %d", w.Code)
	}
}

func TestLimiterStore_CleanupDropsIdleKeys(t *testing.T) {
	store := NewLimiterStore(1, 1, time.Minute)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Get("a")
	now = now.Add(30 * time.Second)
	store.Get("b")
	now = now.Add(45 * time.Second)

	store.Cleanup()

	if store.Len() != 1 {
		t.Fatalf("expected only the recent key to survive, got %d", store.Len())
	}
}

func TestWebhookToken(t *testing.T) {
	hash, err := utils.HashToken("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h := WebhookToken(hash, zap.NewNop())(okHandler)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "wrong", token: "guess", want: http.StatusUnauthorized},
		{name: "valid", token: "s3cret", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", nil)
			if tt.token != "" {
				r.Header.Set(WebhookTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRecover_WritesEnvelope(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json body, got %q", ct)
	}
}
