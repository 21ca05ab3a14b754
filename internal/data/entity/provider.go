package entity

import (
	"talent-escrow/internal/fee"
)

// Provider holds the booking terms of a talent; profile data lives elsewhere.
type Provider struct {
	Base
	DisplayName      string    `db:"display_name"`
	MinBookingAmount fee.Money `db:"min_booking_amount_cents"`
	MinHours         float64   `db:"min_hours"`
	IsActive         bool      `db:"is_active"`
}

// Accepts reports whether a booking at price for hours meets the provider's minimums.
func (p *Provider) Accepts(price fee.Money, hours float64) bool {
	return p.IsActive && price >= p.MinBookingAmount && hours >= p.MinHours
}
