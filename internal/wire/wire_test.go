package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/memory"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/metrics"
	"slot-booking/pkg/middleware"
	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

var day0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, rps float64, burst int) (*App, []*entity.Resource) {
	t.Helper()

	store := memory.NewStore(time.Second, zap.NewNop())
	resources, err := store.Seed(context.Background(), "BAY1:Bay One,BAY2:Bay Two", day0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	hash, err := utils.HashToken("provider-token")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	config := &utils.Config{
		Reservation: utils.ReservationConfig{HoldDuration: 10 * time.Minute, MaxHoldDuration: time.Hour, LockRetries: 1},
		RateLimit:   utils.RateLimitConfig{RPS: rps, Burst: burst},
		Webhook:     utils.WebhookConfig{TokenHash: hash},
	}
	now := func() time.Time { return day0 }
	svc := usecase.NewService(store.Repository(), config, metrics.NewMemoryRecorder(), nil, now, zap.NewNop())

	return Wiring(svc, config, zap.NewNop()), resources
}

func do(t *testing.T, app *App, method, path string, body any, header map[string]string) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	r.RemoteAddr = "10.0.0.1:4000"
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w.Code, env
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	app, resources := newTestApp(t, 0, 0)
	bay := resources[0].ID.String()

	slot := map[string]any{
		"resource_id":  bay,
		"slot_start":   day0.Add(time.Hour),
		"slot_end":     day0.Add(2 * time.Hour),
		"customer_ref": "alice",
	}

	code, env := do(t, app, http.MethodPost, "/api/reservations", slot, nil)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", code, env.Message)
	}
	var held struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &held); err != nil || held.Status != string(entity.ReservationStatusHeld) {
		t.Fatalf("unexpected reservation %s err=%v", env.Data, err)
	}

	if code, _ := do(t, app, http.MethodPost, "/api/reservations", slot, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping hold, got %d", code)
	}

	availability := "/api/resources/" + bay + "/availability?start=" + day0.Add(90*time.Minute).Format(time.RFC3339) +
		"&end=" + day0.Add(3*time.Hour).Format(time.RFC3339)
	code, env = do(t, app, http.MethodGet, availability, nil, nil)
	var avail struct {
		Available bool `json:"available"`
	}
	if code != http.StatusOK || json.Unmarshal(env.Data, &avail) != nil || avail.Available {
		t.Fatalf("expected slot reported busy, got %d %s", code, env.Data)
	}

	payment := map[string]string{"reservation_id": held.ID, "payment_reference": "pay_42"}
	token := map[string]string{middleware.WebhookTokenHeader: "provider-token"}

	if code, _ := do(t, app, http.MethodPost, "/api/webhooks/payment", payment, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code, env := do(t, app, http.MethodPost, "/api/webhooks/payment", payment, token); code != http.StatusCreated {
		t.Fatalf("expected 201 on first payment, got %d (%s)", code, env.Message)
	}
	code, env = do(t, app, http.MethodPost, "/api/webhooks/payment", payment, token)
	var replay struct {
		Duplicate bool `json:"duplicate"`
	}
	if code != http.StatusOK || json.Unmarshal(env.Data, &replay) != nil || !replay.Duplicate {
		t.Fatalf("expected duplicate 200 on replay, got %d %s", code, env.Data)
	}

	timeline := "/api/resources/" + bay + "/bookings?from=2026-03-02T00:00:00Z&to=2026-03-03T00:00:00Z"
	code, env = do(t, app, http.MethodGet, timeline, nil, nil)
	var tl struct {
		Bookings []json.RawMessage `json:"bookings"`
	}
	if code != http.StatusOK || json.Unmarshal(env.Data, &tl) != nil || len(tl.Bookings) != 1 {
		t.Fatalf("expected one booking on the timeline, got %d %s", code, env.Data)
	}

	if code, _ := do(t, app, http.MethodPost, "/api/reservations/"+held.ID+"/cancel", nil, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 cancelling a confirmed reservation, got %d", code)
	}

	if code, _ := do(t, app, http.MethodGet, "/api/reservations/not-a-uuid", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", code)
	}

	code, env = do(t, app, http.MethodGet, "/api/stats", nil, nil)
	var stats struct {
		Outcomes map[string]int64 `json:"outcomes"`
	}
	if code != http.StatusOK || json.Unmarshal(env.Data, &stats) != nil {
		t.Fatalf("stats: %d %s", code, env.Data)
	}
	if stats.Outcomes[string(metrics.OutcomeConfirmed)] != 1 || stats.Outcomes[string(metrics.OutcomeConflict)] != 1 {
		t.Fatalf("unexpected outcomes %v", stats.Outcomes)
	}
}

func TestRequestSlot_Validation(t *testing.T) {
	app, resources := newTestApp(t, 0, 0)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "not json", body: "nope", want: http.StatusBadRequest},
		{name: "end before start", body: map[string]any{
			"resource_id": resources[0].ID.String(), "slot_start": day0.Add(2 * time.Hour),
			"slot_end": day0.Add(time.Hour), "customer_ref": "bob",
		}, want: http.StatusBadRequest},
		{name: "unknown resource", body: map[string]any{
			"resource_id": "6f1c3b4e-9d55-4c2f-8a60-8a1b2c3d4e5f", "slot_start": day0.Add(time.Hour),
			"slot_end": day0.Add(2 * time.Hour), "customer_ref": "bob",
		}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, env := do(t, app, http.MethodPost, "/api/reservations", tt.body, nil); code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, code, env.Message)
			}
		})
	}
}

func TestCreateResource_DuplicateCodeConflicts(t *testing.T) {
	app, _ := newTestApp(t, 0, 0)

	if code, _ := do(t, app, http.MethodPost, "/api/resources", map[string]string{"code": "bay3", "name": "Bay Three"}, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code, _ := do(t, app, http.MethodPost, "/api/resources", map[string]string{"code": "BAY3", "name": "Again"}, nil); code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}

	code, env := do(t, app, http.MethodGet, "/api/resources", nil, nil)
	var list []json.RawMessage
	if code != http.StatusOK || json.Unmarshal(env.Data, &list) != nil || len(list) != 3 {
		t.Fatalf("expected three resources, got %d %s", code, env.Data)
	}
}

func TestReservationWrites_RateLimited(t *testing.T) {
	app, resources := newTestApp(t, 0.01, 1)
	if app.Limiter == nil {
		t.Fatalf("expected limiter to be built")
	}

	body := func(hour int) map[string]any {
		return map[string]any{
			"resource_id":  resources[1].ID.String(),
			"slot_start":   day0.Add(time.Duration(hour) * time.Hour),
			"slot_end":     day0.Add(time.Duration(hour+1) * time.Hour),
			"customer_ref": "carol",
		}
	}

	if code, _ := do(t, app, http.MethodPost, "/api/reservations", body(1), nil); code != http.StatusCreated {
		t.Fatalf("expected first write allowed, got %d", code)
	}
	if code, _ := do(t, app, http.MethodPost, "/api/reservations", body(3), nil); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	// reads are not limited
	if code, _ := do(t, app, http.MethodGet, "/api/resources", nil, nil); code != http.StatusOK {
		t.Fatalf("expected read allowed, got %d", code)
	}
}
