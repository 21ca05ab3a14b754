package entity

import (
	"time"

	"talent-escrow/internal/fee"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
	PaymentStatusVerified            PaymentStatus = "verified"
	PaymentStatusReleased            PaymentStatus = "released"
	PaymentStatusFailed              PaymentStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusReleased || s == PaymentStatusFailed
}

type ReleaseTrigger string

const (
	ReleaseTriggerDeliveryConfirmed ReleaseTrigger = "delivery_confirmed"
	ReleaseTriggerDeadlineElapsed   ReleaseTrigger = "deadline_elapsed"
)

func (t ReleaseTrigger) Valid() bool {
	return t == ReleaseTriggerDeliveryConfirmed || t == ReleaseTriggerDeadlineElapsed
}

// Payment is one escrow transaction. GrossAmount always equals
// PlatformFee + ProcessorFee + PayoutAmount.
type Payment struct {
	ID              uuid.UUID       `db:"id"`
	BookingID       uuid.UUID       `db:"booking_id"`
	GrossAmount     fee.Money       `db:"gross_amount_cents"`
	PlatformFee     fee.Money       `db:"platform_fee_cents"`
	ProcessorFee    fee.Money       `db:"processor_fee_cents"`
	PayoutAmount    fee.Money       `db:"payout_amount_cents"`
	Status          PaymentStatus   `db:"status"`
	PaymentMethod   string          `db:"payment_method"`
	ScheduleVersion int             `db:"schedule_version"`
	CreatedAt       time.Time       `db:"created_at"`
	VerifiedAt      *time.Time      `db:"verified_at"`
	VerifiedBy      *string         `db:"verified_by"`
	EscrowReleaseAt *time.Time      `db:"escrow_release_at"`
	ReleasedAt      *time.Time      `db:"released_at"`
	ReleaseTrigger  *ReleaseTrigger `db:"release_trigger"`
	ReleasedBy      *string         `db:"released_by"`
	FailedAt        *time.Time      `db:"failed_at"`
	FailureReason   *string         `db:"failure_reason"`
}

// NewPayment builds a pending payment from an authoritative fee breakdown.
func NewPayment(bookingID uuid.UUID, b fee.Breakdown, method string, now time.Time) *Payment {
	return &Payment{
		ID:              uuid.New(),
		BookingID:       bookingID,
		GrossAmount:     b.Gross,
		PlatformFee:     b.PlatformFee,
		ProcessorFee:    b.ProcessorFee,
		PayoutAmount:    b.Payout,
		Status:          PaymentStatusPendingVerification,
		PaymentMethod:   method,
		ScheduleVersion: b.ScheduleVersion,
		CreatedAt:       now,
	}
}

// Balanced reports whether the stored parts add up to gross.
func (p *Payment) Balanced() bool {
	return p.PlatformFee+p.ProcessorFee+p.PayoutAmount == p.GrossAmount
}

// ReleaseDue reports whether the escrow hold has elapsed at now.
func (p *Payment) ReleaseDue(now time.Time) bool {
	return p.EscrowReleaseAt != nil && !now.Before(*p.EscrowReleaseAt)
}
