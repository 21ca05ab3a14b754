package usecase

import (
	"errors"

	"talent-escrow/internal/fee"
)

// Input errors. The request is rejected with no state change.
var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrInvalidSchedule        = errors.New("scheduled date is in the past")
	ErrInvalidAmount          = fee.ErrInvalidAmount
	ErrAmountTooSmall         = fee.ErrAmountTooSmall
	ErrUnknownScheduleVersion = fee.ErrUnknownScheduleVersion
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Conflict errors. The caller acted on a stale view and should re-fetch.
var (
	ErrInvalidTransition          = errors.New("invalid state transition")
	ErrDuplicatePayment           = errors.New("booking already has an open payment")
	ErrAmountMismatch             = errors.New("payment amount does not match quoted price")
	ErrBookingNotPayable          = errors.New("booking is not awaiting payment")
	ErrCannotCancelFundedBooking  = errors.New("cannot cancel a funded booking")
	ErrCannotRequoteFundedBooking = errors.New("cannot requote a funded booking")
	ErrReleaseNotDue              = errors.New("escrow hold has not elapsed")
	ErrProviderUnavailable        = errors.New("provider unavailable for this booking")
)
