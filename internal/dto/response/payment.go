package response

import (
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"
)

type PaymentResponse struct {
	ID              string                 `json:"id"`
	BookingID       string                 `json:"booking_id"`
	GrossAmount     fee.Money              `json:"gross_amount"`
	PlatformFee     fee.Money              `json:"platform_fee"`
	ProcessorFee    fee.Money              `json:"processor_fee"`
	PayoutAmount    fee.Money              `json:"payout_amount"`
	Status          entity.PaymentStatus   `json:"status"`
	PaymentMethod   string                 `json:"payment_method"`
	ScheduleVersion int                    `json:"schedule_version"`
	CreatedAt       time.Time              `json:"created_at"`
	VerifiedAt      *time.Time             `json:"verified_at,omitempty"`
	VerifiedBy      *string                `json:"verified_by,omitempty"`
	EscrowReleaseAt *time.Time             `json:"escrow_release_at,omitempty"`
	ReleasedAt      *time.Time             `json:"released_at,omitempty"`
	ReleaseTrigger  *entity.ReleaseTrigger `json:"release_trigger,omitempty"`
	ReleasedBy      *string                `json:"released_by,omitempty"`
	FailedAt        *time.Time             `json:"failed_at,omitempty"`
	FailureReason   *string                `json:"failure_reason,omitempty"`
}

// FeePreviewResponse is advisory. The amounts persisted by CreatePayment are the only authoritative ones.
type FeePreviewResponse struct {
	fee.Breakdown
	Advisory bool `json:"advisory"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              payment.ID.String(),
		BookingID:       payment.BookingID.String(),
		GrossAmount:     payment.GrossAmount,
		PlatformFee:     payment.PlatformFee,
		ProcessorFee:    payment.ProcessorFee,
		PayoutAmount:    payment.PayoutAmount,
		Status:          payment.Status,
		PaymentMethod:   payment.PaymentMethod,
		ScheduleVersion: payment.ScheduleVersion,
		CreatedAt:       payment.CreatedAt,
		VerifiedAt:      payment.VerifiedAt,
		VerifiedBy:      payment.VerifiedBy,
		EscrowReleaseAt: payment.EscrowReleaseAt,
		ReleasedAt:      payment.ReleasedAt,
		ReleaseTrigger:  payment.ReleaseTrigger,
		ReleasedBy:      payment.ReleasedBy,
		FailedAt:        payment.FailedAt,
		FailureReason:   payment.FailureReason,
	}
}
