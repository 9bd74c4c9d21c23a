package consumer

import (
	"context"
	"fmt"

	"slot-booking/internal/dto/request"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/mq"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliverySource is satisfied by *mq.Consumer.
type DeliverySource interface {
	Deliveries(ctx context.Context, tag string) (<-chan amqp.Delivery, error)
}

// PaymentConsumer applies payment.paid messages. The broker may redeliver any message,
// the idempotency guard behind ConfirmPayment makes that harmless.
type PaymentConsumer struct {
	source  DeliverySource
	booking usecase.BookingService
	tag     string
	log     *zap.Logger
}

func NewPaymentConsumer(source DeliverySource, booking usecase.BookingService, tag string, log *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{
		source:  source,
		booking: booking,
		tag:     tag,
		log:     log.With(zap.String("consumer", "payment")),
	}
}

func (c *PaymentConsumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx, c.tag)
	if err != nil {
		return fmt.Errorf("consume payments: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *PaymentConsumer) dispatch(ctx context.Context, d amqp.Delivery) {
	requeue, err := c.handleDelivery(ctx, d)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	if requeue {
		c.log.Warn("Payment message failed, requeueing", zap.String("routing_key", d.RoutingKey), zap.Error(err))
	} else {
		c.log.Warn("Payment message rejected", zap.String("routing_key", d.RoutingKey), zap.Error(err))
	}
	_ = d.Nack(false, requeue)
}

// handleDelivery returns whether a failed message is worth retrying.
func (c *PaymentConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) (bool, error) {
	if d.RoutingKey != mq.RKPaymentPaid {
		c.log.Info("Skip unknown routing key", zap.String("routing_key", d.RoutingKey))
		return false, nil
	}

	ev, err := mq.Unmarshal[mq.PaymentPaid](d.Body)
	if err != nil {
		return false, err
	}

	resp, err := c.booking.ConfirmPayment(ctx, &request.ConfirmPaymentRequest{
		ReservationID:    ev.ReservationID,
		PaymentReference: ev.PaymentReference,
	})
	if err != nil {
		if usecase.IsClientError(err) {
			// the outcome is final; redelivering would give the same answer
			c.log.Warn("Payment not applied",
				zap.String("reservation_id", ev.ReservationID),
				zap.String("payment_reference", ev.PaymentReference),
				zap.Error(err),
			)
			return false, nil
		}
		return true, err
	}

	c.log.Info("Payment applied",
		zap.String("booking_id", resp.BookingID),
		zap.String("payment_reference", resp.PaymentReference),
		zap.Bool("duplicate", resp.Duplicate),
	)
	return false, nil
}
