package response

import (
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"
)

type ProviderResponse struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	MinBookingAmount fee.Money `json:"min_booking_amount"`
	MinHours         float64   `json:"min_hours"`
	IsActive         bool      `json:"is_active"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ProviderToResponse(provider *entity.Provider) ProviderResponse {
	return ProviderResponse{
		ID:               provider.ID.String(),
		DisplayName:      provider.DisplayName,
		MinBookingAmount: provider.MinBookingAmount,
		MinHours:         provider.MinHours,
		IsActive:         provider.IsActive,
		UpdatedAt:        provider.UpdatedAt,
	}
}
