package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/dto/response"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultHoldPeriod = 72 * time.Hour

// EscrowService owns payments and the escrow state machine:
//
//	pending_verification -> verified -> released
//	pending_verification -> failed
//	verified             -> failed
//
// Each transition is one conditional update. A caller that loses a race on a
// terminal transition gets the terminal row back instead of an error.
type EscrowService interface {
	PreviewFees(ctx context.Context, req *request.FeePreviewRequest) (*response.FeePreviewResponse, error)
	CreatePayment(ctx context.Context, actor utils.Actor, bookingID string, req *request.CreatePaymentRequest) (*response.PaymentResponse, error)
	Verify(ctx context.Context, actor utils.Actor, paymentID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	Release(ctx context.Context, actor utils.Actor, paymentID string, trigger entity.ReleaseTrigger) (*response.PaymentResponse, error)
	ConfirmDelivery(ctx context.Context, actor utils.Actor, bookingID string) (*response.PaymentResponse, error)
	Fail(ctx context.Context, actor utils.Actor, paymentID string, req *request.FailPaymentRequest) (*response.PaymentResponse, error)
	GetPayment(ctx context.Context, actor utils.Actor, paymentID string) (*response.PaymentResponse, error)
	GetOpenPaymentForBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.PaymentResponse, error)
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]response.PaymentResponse, error)
}

type escrowService struct {
	repo            *repository.Repository
	events          EventPublisher
	holdPeriod      time.Duration
	scheduleVersion int
	now             clock
	log             *zap.Logger
}

func NewEscrowService(repo *repository.Repository, config utils.EscrowConfig, events EventPublisher, log *zap.Logger) EscrowService {
	hold := config.HoldPeriod
	if hold <= 0 {
		hold = defaultHoldPeriod
	}
	version := config.FeeScheduleVersion
	if version == 0 {
		version = fee.CurrentVersion
	}
	return &escrowService{
		repo:            repo,
		events:          events,
		holdPeriod:      hold,
		scheduleVersion: version,
		now:             entity.Now,
		log:             log.With(zap.String("service", "escrow")),
	}
}

// PreviewFees runs the same computation CreatePayment persists. The result is advisory.
func (s *escrowService) PreviewFees(ctx context.Context, req *request.FeePreviewRequest) (*response.FeePreviewResponse, error) {
	breakdown, err := fee.Compute(req.Amount, s.scheduleVersion)
	if err != nil {
		return nil, fmt.Errorf("preview fees for %s: %w", req.Amount, err)
	}
	return &response.FeePreviewResponse{Breakdown: breakdown, Advisory: true}, nil
}

// CreatePayment is the only place a fee breakdown is persisted.
func (s *escrowService) CreatePayment(ctx context.Context, actor utils.Actor, bookingID string, req *request.CreatePaymentRequest) (_ *response.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "escrow.CreatePayment", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	breakdown, err := fee.Compute(req.Amount, s.scheduleVersion)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var payment *entity.Payment

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		booking, err := tx.Booking.FindByIDForShare(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil || !canSeeBooking(actor, booking) {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		if !actor.IsAdmin() && !isClientOf(actor, booking) {
			return fmt.Errorf("%w: only the client can pay", ErrForbidden)
		}
		if booking.Status != entity.BookingStatusRequested {
			return fmt.Errorf("%w: booking is %s", ErrBookingNotPayable, booking.Status)
		}
		if req.Amount != booking.QuotedPrice {
			return fmt.Errorf("%w: got %s, quoted %s", ErrAmountMismatch, req.Amount, booking.QuotedPrice)
		}

		payment = entity.NewPayment(id, breakdown, req.PaymentMethod, now)
		if err := tx.Payment.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrOpenPaymentExists) {
				return ErrDuplicatePayment
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create payment for booking %s: %w", bookingID, err)
	}

	s.log.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", bookingID),
		zap.String("gross", payment.GrossAmount.String()),
		zap.String("payout", payment.PayoutAmount.String()),
		zap.Int("schedule_version", payment.ScheduleVersion),
	)
	publish(ctx, s.events, s.log, EventPaymentCreated, newPaymentEvent(EventPaymentCreated, payment, actor.String(), now))

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// lockPayment loads the payment, locks its booking, and re-reads the payment so the
// caller sees the state that its conditional update will be checked against.
// Lock order is always booking then payment.
func (s *escrowService) lockPayment(ctx context.Context, tx *repository.Repository, id uuid.UUID) (*entity.Payment, *entity.Booking, error) {
	payment, err := tx.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}

	booking, err := tx.Booking.FindByIDForUpdate(ctx, payment.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking == nil {
		return nil, nil, fmt.Errorf("%w: booking %s", ErrNotFound, payment.BookingID)
	}

	payment, err = tx.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return payment, booking, nil
}

// Verify records the processor's confirmation and starts the escrow hold.
func (s *escrowService) Verify(ctx context.Context, actor utils.Actor, paymentID string, req *request.VerifyPaymentRequest) (_ *response.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "escrow.Verify", trace.WithAttributes(attribute.String("payment.id", paymentID)))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins and services verify payments", ErrForbidden)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	verifiedBy := actor.String()
	if req.Reference != "" {
		verifiedBy += "#" + req.Reference
	}

	now := s.now()
	var payment *entity.Payment

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, booking, err := s.lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != entity.PaymentStatusPendingVerification {
			return fmt.Errorf("%w: payment is %s", ErrInvalidTransition, current.Status)
		}
		if booking.Status != entity.BookingStatusRequested {
			return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
		}

		payment, err = tx.Payment.MarkVerified(ctx, id, verifiedBy, now, now.Add(s.holdPeriod))
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("%w: payment %s is no longer pending", ErrInvalidTransition, paymentID)
		}

		confirmed, err := tx.Booking.TransitionStatus(ctx, booking.ID, []entity.BookingStatus{entity.BookingStatusRequested}, entity.BookingStatusConfirmed, now)
		if err != nil {
			return err
		}
		if confirmed == nil {
			return fmt.Errorf("%w: booking %s is no longer requested", ErrInvalidTransition, booking.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify payment %s: %w", paymentID, err)
	}

	s.log.Info("Payment verified",
		zap.String("payment_id", paymentID),
		zap.String("verified_by", verifiedBy),
		zap.Time("escrow_release_at", *payment.EscrowReleaseAt),
	)
	publish(ctx, s.events, s.log, EventPaymentVerified, newPaymentEvent(EventPaymentVerified, payment, actor.String(), now))

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// Release pays out a verified payment. Only the caller whose conditional update
// succeeds emits the payout event; every other caller gets the terminal row.
func (s *escrowService) Release(ctx context.Context, actor utils.Actor, paymentID string, trigger entity.ReleaseTrigger) (_ *response.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "escrow.Release", trace.WithAttributes(
		attribute.String("payment.id", paymentID),
		attribute.String("release.trigger", string(trigger)),
	))
	defer func() { endSpan(span, err) }()

	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	payment, released, err := s.release(ctx, actor, id, trigger)
	if err != nil {
		return nil, fmt.Errorf("release payment %s: %w", paymentID, err)
	}
	span.SetAttributes(attribute.Bool("release.won", released))

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// ConfirmDelivery is the client's delivery confirmation: it releases the booking's
// verified payment. Repeating it after release returns the released payment.
func (s *escrowService) ConfirmDelivery(ctx context.Context, actor utils.Actor, bookingID string) (_ *response.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "escrow.ConfirmDelivery", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("confirm delivery: %w", err)
	}
	if booking == nil || !canSeeBooking(actor, booking) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	payment, err := s.repo.Payment.FindLatestByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("confirm delivery: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: no payment for booking %s", ErrNotFound, bookingID)
	}
	if payment.Status == entity.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: latest payment for booking %s failed", ErrInvalidTransition, bookingID)
	}

	released, _, err := s.release(ctx, actor, payment.ID, entity.ReleaseTriggerDeliveryConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm delivery for booking %s: %w", bookingID, err)
	}

	resp := response.PaymentToResponse(released)
	return &resp, nil
}

func (s *escrowService) release(ctx context.Context, actor utils.Actor, id uuid.UUID, trigger entity.ReleaseTrigger) (*entity.Payment, bool, error) {
	if !trigger.Valid() {
		return nil, false, fmt.Errorf("%w: unknown release trigger %q", ErrValidation, trigger)
	}

	now := s.now()
	var (
		payment *entity.Payment
		won     bool
	)

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, booking, err := s.lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canRelease(actor, booking, trigger) {
			if !canSeeBooking(actor, booking) {
				return fmt.Errorf("%w: payment %s", ErrNotFound, id)
			}
			return fmt.Errorf("%w: %s cannot release with %s", ErrForbidden, actor.Role, trigger)
		}

		switch {
		case current.Status.Terminal():
			payment = current
			return nil
		case current.Status != entity.PaymentStatusVerified:
			return fmt.Errorf("%w: payment is %s", ErrInvalidTransition, current.Status)
		case trigger == entity.ReleaseTriggerDeadlineElapsed && !current.ReleaseDue(now):
			return fmt.Errorf("%w: due at %s", ErrReleaseNotDue, current.EscrowReleaseAt.Format(time.RFC3339))
		}

		payment, err = tx.Payment.MarkReleased(ctx, id, trigger, actor.String(), now)
		if err != nil {
			return err
		}
		if payment == nil {
			// Lost the race; report whatever terminal state the winner left.
			payment, err = tx.Payment.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if payment == nil || !payment.Status.Terminal() {
				return fmt.Errorf("%w: payment %s changed concurrently", ErrInvalidTransition, id)
			}
			return nil
		}

		completed, err := tx.Booking.TransitionStatus(ctx, booking.ID, []entity.BookingStatus{entity.BookingStatusConfirmed}, entity.BookingStatusCompleted, now)
		if err != nil {
			return err
		}
		if completed == nil {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, booking.ID, booking.Status)
		}
		won = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if won {
		s.log.Info("Payment released",
			zap.String("payment_id", id.String()),
			zap.String("trigger", string(trigger)),
			zap.String("payout", payment.PayoutAmount.String()),
			zap.String("actor", actor.String()),
		)
		publish(ctx, s.events, s.log, EventPaymentReleased, newPaymentEvent(EventPaymentReleased, payment, actor.String(), now))
	} else {
		s.log.Debug("Release was a no-op",
			zap.String("payment_id", id.String()),
			zap.String("status", string(payment.Status)),
		)
	}

	return payment, won, nil
}

// canRelease: admins and services may use either trigger, the booking's client only
// confirms delivery.
func canRelease(actor utils.Actor, booking *entity.Booking, trigger entity.ReleaseTrigger) bool {
	if actor.IsAdmin() {
		return true
	}
	return trigger == entity.ReleaseTriggerDeliveryConfirmed && isClientOf(actor, booking)
}

// Fail marks a payment failed. Failing a verified payment refunds the client and
// cancels the booking. A payment already terminal is returned unchanged.
func (s *escrowService) Fail(ctx context.Context, actor utils.Actor, paymentID string, req *request.FailPaymentRequest) (_ *response.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "escrow.Fail", trace.WithAttributes(attribute.String("payment.id", paymentID)))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins and services fail payments", ErrForbidden)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		payment *entity.Payment
		won     bool
	)

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, booking, err := s.lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			payment = current
			return nil
		}

		payment, err = tx.Payment.MarkFailed(ctx, id, []entity.PaymentStatus{current.Status}, req.Reason, now)
		if err != nil {
			return err
		}
		if payment == nil {
			payment, err = tx.Payment.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if payment == nil || !payment.Status.Terminal() {
				return fmt.Errorf("%w: payment %s changed concurrently", ErrInvalidTransition, paymentID)
			}
			return nil
		}

		if current.Status == entity.PaymentStatusVerified {
			cancelled, err := tx.Booking.TransitionStatus(ctx, booking.ID, []entity.BookingStatus{entity.BookingStatusConfirmed}, entity.BookingStatusCancelled, now)
			if err != nil {
				return err
			}
			if cancelled == nil {
				return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, booking.ID, booking.Status)
			}
		}
		won = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fail payment %s: %w", paymentID, err)
	}

	if won {
		s.log.Info("Payment failed",
			zap.String("payment_id", paymentID),
			zap.String("reason", req.Reason),
			zap.String("actor", actor.String()),
		)
		publish(ctx, s.events, s.log, EventPaymentFailed, newPaymentEvent(EventPaymentFailed, payment, actor.String(), now))
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *escrowService) GetPayment(ctx context.Context, actor utils.Actor, paymentID string) (*response.PaymentResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}

	if !actor.IsAdmin() {
		booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
		if err != nil {
			return nil, fmt.Errorf("get payment: %w", err)
		}
		if booking == nil || !canSeeBooking(actor, booking) {
			return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
		}
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *escrowService) GetOpenPaymentForBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.PaymentResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get open payment: %w", err)
	}
	if booking == nil || !canSeeBooking(actor, booking) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	payment, err := s.repo.Payment.FindOpenByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get open payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: no open payment for booking %s", ErrNotFound, bookingID)
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *escrowService) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]response.PaymentResponse, error) {
	payments, err := s.repo.Payment.ListDueForRelease(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due payments: %w", err)
	}

	items := make([]response.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = response.PaymentToResponse(p)
	}
	return items, nil
}
