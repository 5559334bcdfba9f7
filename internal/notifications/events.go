package notifications

import (
	"context"

	"salonbliss/pkg/config"
	"salonbliss/pkg/kafka"
	kafka_config "salonbliss/pkg/kafka/config"
	kafka_middleware "salonbliss/pkg/kafka/middleware"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

// Event types published on the booking events topic.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventPaymentFailed    = "payment.failed"

	eventSource   = "salonbliss-api"
	schemaVersion = "1"
)

type bookingEvent struct {
	BookingID     string `json:"bookingId"`
	UserID        string `json:"userId"`
	ServiceID     string `json:"serviceId"`
	Date          string `json:"date"`
	TimeSlot      string `json:"timeSlot"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PaymentMethod string `json:"paymentMethod"`
}

// EventPublisher emits booking lifecycle events to Kafka. A nil publisher is
// valid and publishes nothing, which is how the service runs when no events
// topic is configured.
type EventPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewEventPublisher builds the publisher, or returns nil when cfg.EventsTopic
// is empty.
func NewEventPublisher(cfg *config.Config) (*EventPublisher, error) {
	if cfg.EventsTopic == "" {
		cfg.Log.Info("Events topic not configured, event publishing disabled")
		return nil, nil
	}

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsTopic+".dlq")
	if err != nil {
		return nil, err
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
	}

	return &EventPublisher{
		producer: producer,
		log:      cfg.Log,
	}, nil
}

func (p *EventPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *EventPublisher) BookingConfirmed(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingConfirmed, booking)
}

func (p *EventPublisher) PaymentFailed(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventPaymentFailed, booking)
}

// publish is best effort: event delivery never fails a request.
func (p *EventPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if p == nil || p.producer == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(eventType).
		WithSource(eventSource).
		WithSchemaVersion(schemaVersion).
		WithValue(bookingEvent{
			BookingID:     booking.ID,
			UserID:        booking.UserID,
			ServiceID:     booking.ServiceID,
			Date:          booking.Date,
			TimeSlot:      booking.TimeSlot,
			Status:        booking.Status,
			PaymentStatus: booking.PaymentStatus,
			PaymentMethod: booking.PaymentMethod,
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// Close shuts the underlying producer down.
func (p *EventPublisher) Close() {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.Close(); err != nil {
		p.log.Error("Failed to close event producer", "error", err)
	}
}
