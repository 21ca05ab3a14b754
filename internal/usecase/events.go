package usecase

import (
	"context"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"

	"go.uber.org/zap"
)

// Routing keys of domain events. Events are published after commit, and only by
// the caller whose transition actually happened.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRequoted  = "booking.requoted"
	EventPaymentCreated   = "payment.created"
	EventPaymentVerified  = "payment.verified"
	EventPaymentReleased  = "payment.released"
	EventPaymentFailed    = "payment.failed"
)

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

type BookingEvent struct {
	Type        string               `json:"type"`
	BookingID   string               `json:"booking_id"`
	ClientID    string               `json:"client_id"`
	ProviderID  string               `json:"provider_id"`
	QuotedPrice fee.Money            `json:"quoted_price"`
	Status      entity.BookingStatus `json:"status"`
	Actor       string               `json:"actor"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

type PaymentEvent struct {
	Type          string                 `json:"type"`
	PaymentID     string                 `json:"payment_id"`
	BookingID     string                 `json:"booking_id"`
	Status        entity.PaymentStatus   `json:"status"`
	GrossAmount   fee.Money              `json:"gross_amount"`
	PlatformFee   fee.Money              `json:"platform_fee"`
	ProcessorFee  fee.Money              `json:"processor_fee"`
	PayoutAmount  fee.Money              `json:"payout_amount"`
	Trigger       *entity.ReleaseTrigger `json:"trigger,omitempty"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	Actor         string                 `json:"actor"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

func newBookingEvent(eventType string, b *entity.Booking, actor string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID.String(),
		ClientID:    b.ClientID.String(),
		ProviderID:  b.ProviderID.String(),
		QuotedPrice: b.QuotedPrice,
		Status:      b.Status,
		Actor:       actor,
		OccurredAt:  at,
	}
}

func newPaymentEvent(eventType string, p *entity.Payment, actor string, at time.Time) PaymentEvent {
	return PaymentEvent{
		Type:          eventType,
		PaymentID:     p.ID.String(),
		BookingID:     p.BookingID.String(),
		Status:        p.Status,
		GrossAmount:   p.GrossAmount,
		PlatformFee:   p.PlatformFee,
		ProcessorFee:  p.ProcessorFee,
		PayoutAmount:  p.PayoutAmount,
		Trigger:       p.ReleaseTrigger,
		FailureReason: p.FailureReason,
		Actor:         actor,
		OccurredAt:    at,
	}
}

// publish never fails the operation; the transition is already committed.
func publish(ctx context.Context, events EventPublisher, log *zap.Logger, routingKey string, payload any) {
	if err := events.Publish(ctx, routingKey, payload); err != nil {
		log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("routing_key", routingKey),
		)
	}
}
