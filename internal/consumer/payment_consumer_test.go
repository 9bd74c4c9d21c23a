package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/dto/response"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/mq"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type ackRecorder struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type stubBooking struct {
	usecase.BookingService
	err   error
	calls []*request.ConfirmPaymentRequest
}

func (s *stubBooking) ConfirmPayment(_ context.Context, req *request.ConfirmPaymentRequest) (*response.ConfirmPaymentResponse, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &response.ConfirmPaymentResponse{BookingID: "b1", PaymentReference: req.PaymentReference}, nil
}

func delivery(t *testing.T, key string, v any, ack *ackRecorder) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return amqp.Delivery{Acknowledger: ack, RoutingKey: key, Body: body}
}

func TestDispatch(t *testing.T) {
	paid := mq.PaymentPaid{ReservationID: "9b2f7f1e-4a57-4c1c-9c1e-0c2a4c5f4d11", PaymentReference: "pay_123"}

	tests := []struct {
		name        string
		key         string
		body        any
		err         error
		wantAcks    int
		wantNacks   int
		wantRequeue bool
		wantCalls   int
	}{
		{name: "applied", key: mq.RKPaymentPaid, body: paid, wantAcks: 1, wantCalls: 1},
		{name: "final business outcome", key: mq.RKPaymentPaid, body: paid, err: usecase.ErrExpired, wantAcks: 1, wantCalls: 1},
		{name: "busy resource", key: mq.RKPaymentPaid, body: paid, err: usecase.ErrLockTimeout, wantNacks: 1, wantRequeue: true, wantCalls: 1},
		{name: "malformed body", key: mq.RKPaymentPaid, body: "not an object", wantNacks: 1},
		{name: "unknown key", key: "payment.failed", body: paid, wantAcks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &ackRecorder{}
			booking := &stubBooking{err: tt.err}
			c := NewPaymentConsumer(nil, booking, "test", zap.NewNop())

			c.dispatch(context.Background(), delivery(t, tt.key, tt.body, ack))

			if ack.acks != tt.wantAcks || ack.nacks != tt.wantNacks || ack.requeue != tt.wantRequeue {
				t.Fatalf("acks=%d nacks=%d requeue=%v", ack.acks, ack.nacks, ack.requeue)
			}
			if len(booking.calls) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(booking.calls))
			}
		})
	}
}

type chanSource struct{ ch chan amqp.Delivery }

func (s chanSource) Deliveries(context.Context, string) (<-chan amqp.Delivery, error) {
	return s.ch, nil
}

func TestRun_ConsumesUntilChannelCloses(t *testing.T) {
	src := chanSource{ch: make(chan amqp.Delivery, 2)}
	booking := &stubBooking{}
	ack := &ackRecorder{}

	paid := mq.PaymentPaid{ReservationID: "9b2f7f1e-4a57-4c1c-9c1e-0c2a4c5f4d11", PaymentReference: "pay_1"}
	src.ch <- delivery(t, mq.RKPaymentPaid, paid, ack)
	src.ch <- delivery(t, mq.RKPaymentPaid, paid, ack)
	close(src.ch)

	c := NewPaymentConsumer(src, booking, "test", zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("consumer did not stop")
	}

	if ack.acks != 2 || len(booking.calls) != 2 {
		t.Fatalf("expected both deliveries applied and acked, acks=%d calls=%d", ack.acks, len(booking.calls))
	}
}
