package usecase

import (
	"context"
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

// Failure reasons written on payments the ledger invalidates.
const (
	ReasonBookingCancelled = "booking_cancelled"
	ReasonRequoted         = "requoted"
)

type BookingService interface {
	CreateBooking(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, actor utils.Actor, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	RequoteBooking(ctx context.Context, actor utils.Actor, bookingID string, req *request.RequoteBookingRequest) (*response.BookingResponse, error)
}

// bookingService owns bookings. It never reads payment state: funding is visible
// through the booking status, which the escrow engine moves in the same
// transaction as the payment.
type bookingService struct {
	repo   *repository.Repository
	events EventPublisher
	now    clock
	log    *zap.Logger
}

func NewBookingService(repo *repository.Repository, events EventPublisher, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		events: events,
		now:    entity.Now,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if actor.Role != utils.RoleClient {
		return nil, fmt.Errorf("%w: only clients create bookings", ErrForbidden)
	}
	clientID, err := actorUUID(actor)
	if err != nil {
		return nil, err
	}

	if req.QuotedPrice <= 0 || req.QuotedPrice > fee.MaxAmount {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, req.QuotedPrice)
	}
	if err := validate(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	providerID, err := parseID("provider", req.ProviderID)
	if err != nil {
		return nil, err
	}

	var serviceID *uuid.UUID
	if req.ServiceID != nil {
		id, err := parseID("service", *req.ServiceID)
		if err != nil {
			return nil, err
		}
		serviceID = &id
	}

	scheduled, err := utils.ParseTime(req.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_date must be RFC3339 or YYYY-MM-DD", ErrValidation)
	}

	now := s.now()
	if scheduled.Before(now.Truncate(24 * time.Hour)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchedule, req.ScheduledDate)
	}

	provider, err := s.repo.Provider.FindByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: provider %s", ErrNotFound, req.ProviderID)
	}
	if !provider.Accepts(req.QuotedPrice, req.Hours) {
		s.log.Warn("Booking below provider terms",
			zap.String("provider_id", req.ProviderID),
			zap.Bool("is_active", provider.IsActive),
			zap.String("quoted_price", req.QuotedPrice.String()),
			zap.Float64("hours", req.Hours),
		)
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, req.ProviderID)
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClientID:      clientID,
		ProviderID:    providerID,
		ServiceID:     serviceID,
		QuotedPrice:   req.QuotedPrice,
		Hours:         req.Hours,
		ScheduledDate: scheduled,
		Notes:         req.Notes,
		Status:        entity.BookingStatusRequested,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client_id", actor.ID),
		zap.String("provider_id", req.ProviderID),
		zap.String("quoted_price", booking.QuotedPrice.String()),
	)
	publish(ctx, s.events, s.log, EventBookingCreated, newBookingEvent(EventBookingCreated, booking, actor.String(), now))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	// Non-parties get the same answer as for a missing booking.
	if booking == nil || !canSeeBooking(actor, booking) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListBookings(ctx context.Context, actor utils.Actor, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var filter repository.BookingFilter
	if !actor.IsAdmin() {
		id, err := actorUUID(actor)
		if err != nil {
			return nil, err
		}
		switch actor.Role {
		case utils.RoleClient:
			filter.ClientID = &id
		case utils.RoleProvider:
			filter.ProviderID = &id
		default:
			return nil, fmt.Errorf("%w: role %q cannot list bookings", ErrForbidden, actor.Role)
		}
	}
	if req.Status != "" {
		status := entity.BookingStatus(req.Status)
		filter.Status = &status
	}

	bookings, err := s.repo.Booking.List(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	total, err := s.repo.Booking.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	items := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		items[i] = response.BookingToResponse(booking)
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

// CancelBooking cancels a booking that has not been funded. Pending payments are
// failed in the same transaction. Cancelling twice returns the cancelled booking.
func (s *bookingService) CancelBooking(ctx context.Context, actor utils.Actor, bookingID string) (_ *response.BookingResponse, err error) {
	ctx, span := tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		booking   *entity.Booking
		failed    []*entity.Payment
		cancelled bool
	)

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil || !canSeeBooking(actor, current) {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		if !actor.IsAdmin() && !isClientOf(actor, current) {
			return fmt.Errorf("%w: only the client can cancel", ErrForbidden)
		}

		switch {
		case current.Status == entity.BookingStatusCancelled:
			booking = current
			return nil
		case current.Status.Funded():
			return ErrCannotCancelFundedBooking
		}

		booking, err = tx.Booking.TransitionStatus(ctx, id, []entity.BookingStatus{entity.BookingStatusRequested}, entity.BookingStatusCancelled, now)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, bookingID)
		}

		failed, err = tx.Payment.FailPendingByBookingID(ctx, id, ReasonBookingCancelled, now)
		if err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	if cancelled {
		s.log.Info("Booking cancelled",
			zap.String("booking_id", bookingID),
			zap.Int("failed_payments", len(failed)),
			zap.String("actor", actor.String()),
		)
		publish(ctx, s.events, s.log, EventBookingCancelled, newBookingEvent(EventBookingCancelled, booking, actor.String(), now))
		for _, p := range failed {
			publish(ctx, s.events, s.log, EventPaymentFailed, newPaymentEvent(EventPaymentFailed, p, actor.String(), now))
		}
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// RequoteBooking changes the price of an unfunded booking and invalidates any
// pending payment taken at the old price.
func (s *bookingService) RequoteBooking(ctx context.Context, actor utils.Actor, bookingID string, req *request.RequoteBookingRequest) (_ *response.BookingResponse, err error) {
	ctx, span := tracer.Start(ctx, "booking.Requote", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	if req.QuotedPrice <= 0 || req.QuotedPrice > fee.MaxAmount {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, req.QuotedPrice)
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		booking *entity.Booking
		failed  []*entity.Payment
	)

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil || !canSeeBooking(actor, current) {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		if !actor.IsAdmin() && !isProviderOf(actor, current) {
			return fmt.Errorf("%w: only the provider can requote", ErrForbidden)
		}

		switch {
		case current.Status.Funded():
			return ErrCannotRequoteFundedBooking
		case current.Status != entity.BookingStatusRequested:
			return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, current.Status)
		}

		provider, err := tx.Provider.FindByID(ctx, current.ProviderID)
		if err != nil {
			return err
		}
		if provider != nil && !provider.Accepts(req.QuotedPrice, current.Hours) {
			return fmt.Errorf("%w: below provider terms", ErrProviderUnavailable)
		}

		booking, err = tx.Booking.UpdateQuote(ctx, id, req.QuotedPrice, now)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, bookingID)
		}

		failed, err = tx.Payment.FailPendingByBookingID(ctx, id, ReasonRequoted, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("requote booking %s: %w", bookingID, err)
	}

	s.log.Info("Booking requoted",
		zap.String("booking_id", bookingID),
		zap.String("quoted_price", booking.QuotedPrice.String()),
		zap.Int("failed_payments", len(failed)),
		zap.String("actor", actor.String()),
	)
	publish(ctx, s.events, s.log, EventBookingRequoted, newBookingEvent(EventBookingRequoted, booking, actor.String(), now))
	for _, p := range failed {
		publish(ctx, s.events, s.log, EventPaymentFailed, newPaymentEvent(EventPaymentFailed, p, actor.String(), now))
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}
