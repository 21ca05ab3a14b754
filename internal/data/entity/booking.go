package entity

import (
	"time"

	"talent-escrow/internal/fee"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Funded reports whether escrow has taken the client's money for this booking.
func (s BookingStatus) Funded() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCompleted
}

type Booking struct {
	Base
	ClientID      uuid.UUID     `db:"client_id"`
	ProviderID    uuid.UUID     `db:"provider_id"`
	ServiceID     *uuid.UUID    `db:"service_id"`
	QuotedPrice   fee.Money     `db:"quoted_price_cents"`
	Hours         float64       `db:"hours"`
	ScheduledDate time.Time     `db:"scheduled_date"`
	Notes         string        `db:"notes"`
	Status        BookingStatus `db:"status"`
	CancelledAt   *time.Time    `db:"cancelled_at"`
}

// IsParty reports whether userID is the client or the provider on the booking.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.ClientID == userID || b.ProviderID == userID
}
