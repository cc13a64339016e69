// Package event publishes booking lifecycle events to Kafka. Publishing is
// fire and forget; a broker outage never fails a booking operation.
package event

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"agrirent/config"
	"agrirent/infras/kafka"
)

const (
	TypeHoldCreated      = "booking.hold_created"
	TypePaymentConfirmed = "booking.payment_confirmed"
	TypePaymentFailed    = "booking.payment_failed"
	TypeHoldCancelled    = "booking.hold_cancelled"
	TypeHoldExpired      = "booking.hold_expired"
	TypeDatesCancelled   = "booking.dates_cancelled"
)

type Event struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"bookingId"`
	EquipmentID string    `json:"equipmentId,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	TotalAmount float64   `json:"totalAmount,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

type publisherImpl struct {
	kafka kafka.Client
	topic string
}

// New returns the Kafka-backed publisher, or a no-op one when Kafka is
// disabled in configuration.
func New(cfg *config.Config, client kafka.Client) Publisher {
	if !cfg.Kafka.Enable {
		log.Info().Msg("Kafka disabled, booking events will not be published")

		return noopPublisher{}
	}

	return &publisherImpl{
		kafka: client,
		topic: cfg.Kafka.EventsTopic,
	}
}

func (p *publisherImpl) Publish(ctx context.Context, evt Event) {
	go func() {
		ctx := context.WithoutCancel(ctx)

		message := kafka.Message{
			Key:   evt.BookingID,
			Value: evt,
		}

		if err := p.kafka.SendMessages(ctx, p.topic, message); err != nil {
			log.Error().Err(err).Str("type", evt.Type).Str("booking_id", evt.BookingID).Msg("Failed to publish booking event")
		}
	}()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) {}
