package request

import "talent-escrow/internal/fee"

type CreateBookingRequest struct {
	ProviderID    string    `json:"provider_id" validate:"required,uuid"`
	ServiceID     *string   `json:"service_id,omitempty" validate:"omitempty,uuid"`
	QuotedPrice   fee.Money `json:"quoted_price"`
	Hours         float64   `json:"hours" validate:"gt=0,max=1000,hundredths"`
	ScheduledDate string    `json:"scheduled_date" validate:"required"`
	Notes         string    `json:"notes" validate:"max=2000"`
}

type RequoteBookingRequest struct {
	QuotedPrice fee.Money `json:"quoted_price"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=requested confirmed completed cancelled"`
}
