package adaptor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"slot-booking/internal/data/repository"
	"slot-booking/internal/usecase"

	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: slot end must be after slot start", usecase.ErrInvalidRequest), want: http.StatusBadRequest},
		{err: fmt.Errorf("reservation x: %w", usecase.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("BAY1 09:00-10:00: %w", usecase.ErrConflict), want: http.StatusConflict},
		{err: usecase.ErrAlreadyTerminal, want: http.StatusConflict},
		{err: usecase.ErrPaymentReferenceReused, want: http.StatusConflict},
		{err: usecase.ErrResourceInactive, want: http.StatusConflict},
		{err: fmt.Errorf("create booking: %w: ERROR: conflicting key value (SQLSTATE 23P01)", repository.ErrDuplicate), want: http.StatusConflict},
		{err: usecase.ErrExpired, want: http.StatusGone},
		{err: fmt.Errorf("%w after 4 attempts: busy", usecase.ErrLockTimeout), want: http.StatusServiceUnavailable},
		{err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			handleServiceError(zap.NewNop(), w, tt.err, "test")
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestHandleServiceError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(zap.NewNop(), w, errors.New("pq: password authentication failed"), "test")

	if body := w.Body.String(); body == "" || strings.Contains(body, "password") {
		t.Fatalf("internal error leaked to client: %s", body)
	}
}

func TestHandleServiceError_DuplicateHidesDriverText(t *testing.T) {
	w := httptest.NewRecorder()
	err := fmt.Errorf("create booking: %w: ERROR: conflicting key value violates exclusion constraint \"bookings_no_overlap\"", repository.ErrDuplicate)
	handleServiceError(zap.NewNop(), w, err, "test")

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "bookings_no_overlap") {
		t.Fatalf("constraint name leaked to client: %s", w.Body.String())
	}
}
