package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/dto/response"
	"talent-escrow/internal/usecase"
	"talent-escrow/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	VerificationQueue = "escrow.verifications"

	RKPaymentConfirmed = "processor.payment.confirmed"
	RKPaymentRejected  = "processor.payment.rejected"
)

// Bindings are the routing keys the verification queue listens on.
var Bindings = []string{RKPaymentConfirmed, RKPaymentRejected}

// ProcessorActor is the identity processor callbacks act as.
var ProcessorActor = utils.Actor{ID: "processor", Role: utils.RoleService}

// ProcessorMessage is the opaque callback a payment processor relays.
type ProcessorMessage struct {
	PaymentID string `json:"payment_id"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Verifier is the part of the escrow engine driven by processor callbacks.
type Verifier interface {
	Verify(ctx context.Context, actor utils.Actor, paymentID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	Fail(ctx context.Context, actor utils.Actor, paymentID string, req *request.FailPaymentRequest) (*response.PaymentResponse, error)
}

// Source yields deliveries; *mq.Consumer satisfies it.
type Source interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRequeue
)

type VerificationConsumer struct {
	source Source
	escrow Verifier
	log    *zap.Logger
}

func NewVerificationConsumer(source Source, escrow Verifier, log *zap.Logger) *VerificationConsumer {
	return &VerificationConsumer{
		source: source,
		escrow: escrow,
		log:    log.With(zap.String("consumer", "verification")),
	}
}

// Run consumes until ctx is done or the channel closes.
func (c *VerificationConsumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume %s: %w", VerificationQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			switch c.handle(ctx, d.RoutingKey, d.Body) {
			case outcomeAck:
				_ = d.Ack(false)
			case outcomeDrop:
				_ = d.Nack(false, false)
			case outcomeRequeue:
				_ = d.Nack(false, true)
			}
		}
	}
}

func (c *VerificationConsumer) handle(ctx context.Context, key string, body []byte) outcome {
	var msg ProcessorMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.PaymentID == "" {
		c.log.Warn("dropping malformed message", zap.String("routing_key", key), zap.ByteString("body", body))
		return outcomeDrop
	}

	var err error
	switch key {
	case RKPaymentConfirmed:
		_, err = c.escrow.Verify(ctx, ProcessorActor, msg.PaymentID, &request.VerifyPaymentRequest{Reference: msg.Reference})
	case RKPaymentRejected:
		reason := msg.Reason
		if reason == "" {
			reason = "processor_rejected"
		}
		_, err = c.escrow.Fail(ctx, ProcessorActor, msg.PaymentID, &request.FailPaymentRequest{Reason: reason})
	default:
		c.log.Warn("dropping message with unknown routing key", zap.String("routing_key", key))
		return outcomeDrop
	}

	log := c.log.With(zap.String("routing_key", key), zap.String("payment_id", msg.PaymentID))
	switch {
	case err == nil:
		log.Info("processor callback applied")
		return outcomeAck
	case errors.Is(err, usecase.ErrInvalidTransition):
		log.Info("stale processor callback acknowledged", zap.Error(err))
		return outcomeAck
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrNotFound):
		log.Warn("dropping processor callback", zap.Error(err))
		return outcomeDrop
	default:
		log.Error("processor callback failed, requeueing", zap.Error(err))
		return outcomeRequeue
	}
}
