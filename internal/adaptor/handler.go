package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"talent-escrow/internal/usecase"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Payment  *PaymentHandler
	Provider *ProviderHandler
	Earnings *EarningsHandler
	Internal *InternalHandler
	Health   *HealthHandler
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewHandler(service *usecase.Service, sweeper Sweeper, db Pinger, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, service.Escrow, log),
		Payment:  NewPaymentHandler(service.Escrow, log),
		Provider: NewProviderHandler(service.Provider, log),
		Earnings: NewEarningsHandler(service.Earnings, log),
		Internal: NewInternalHandler(sweeper, log),
		Health:   NewHealthHandler(db, log),
	}
}

// actorFrom reads the authenticated actor or answers 401.
func actorFrom(w http.ResponseWriter, r *http.Request) (utils.Actor, bool) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return actor, ok
}

// decodeAndValidate parses the JSON body into req and runs struct validation,
// answering 400 itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

// handleServiceError maps usecase sentinels to HTTP statuses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInvalidPrice),
		errors.Is(err, usecase.ErrAmountTooSmall),
		errors.Is(err, usecase.ErrUnknownScheduleVersion),
		errors.Is(err, usecase.ErrInvalidSchedule):
		log.Warn(operation+" rejected", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", fields...)
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrDuplicatePayment),
		errors.Is(err, usecase.ErrAmountMismatch),
		errors.Is(err, usecase.ErrBookingNotPayable),
		errors.Is(err, usecase.ErrCannotCancelFundedBooking),
		errors.Is(err, usecase.ErrCannotRequoteFundedBooking),
		errors.Is(err, usecase.ErrReleaseNotDue),
		errors.Is(err, usecase.ErrProviderUnavailable):
		log.Info(operation+" conflict", fields...)
		utils.ResponseConflict(w, err.Error())

	default:
		log.Error(operation+" failed", fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
