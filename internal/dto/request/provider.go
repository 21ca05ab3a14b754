package request

import "talent-escrow/internal/fee"

type UpsertProviderRequest struct {
	DisplayName      string    `json:"display_name" validate:"required,min=2,max=120"`
	MinBookingAmount fee.Money `json:"min_booking_amount" validate:"gte=0"`
	MinHours         float64   `json:"min_hours" validate:"gte=0,max=1000,hundredths"`
	IsActive         *bool     `json:"is_active" validate:"required"`
}
