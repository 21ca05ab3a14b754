package usecase

import (
	"fmt"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/data/repository"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("talent-escrow/usecase")

type Service struct {
	Provider ProviderService
	Booking  BookingService
	Escrow   EscrowService
	Earnings EarningsService
}

func NewService(repo *repository.Repository, config *utils.Config, events EventPublisher, log *zap.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		Provider: NewProviderService(repo, log),
		Booking:  NewBookingService(repo, events, log),
		Escrow:   NewEscrowService(repo, config.Escrow, events, log),
		Earnings: NewEarningsService(repo, log),
	}
}

// clock is swapped in tests.
type clock func() time.Time

func actorUUID(actor utils.Actor) (uuid.UUID, error) {
	id, err := uuid.Parse(actor.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: actor id %q is not a uuid", ErrForbidden, actor.ID)
	}
	return id, nil
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s ID %q", ErrValidation, kind, raw)
	}
	return id, nil
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	return nil
}

// canSeeBooking reports whether actor may read the booking.
func canSeeBooking(actor utils.Actor, b *entity.Booking) bool {
	if actor.IsAdmin() {
		return true
	}
	id, err := uuid.Parse(actor.ID)
	return err == nil && b.IsParty(id)
}

func isClientOf(actor utils.Actor, b *entity.Booking) bool {
	id, err := uuid.Parse(actor.ID)
	return err == nil && b.ClientID == id
}

func isProviderOf(actor utils.Actor, b *entity.Booking) bool {
	id, err := uuid.Parse(actor.ID)
	return err == nil && b.ProviderID == id
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
