package response

import (
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	ClientID      string               `json:"client_id"`
	ProviderID    string               `json:"provider_id"`
	ServiceID     *string              `json:"service_id,omitempty"`
	QuotedPrice   fee.Money            `json:"quoted_price"`
	Hours         float64              `json:"hours"`
	ScheduledDate time.Time            `json:"scheduled_date"`
	Notes         string               `json:"notes,omitempty"`
	Status        entity.BookingStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            booking.ID.String(),
		ClientID:      booking.ClientID.String(),
		ProviderID:    booking.ProviderID.String(),
		QuotedPrice:   booking.QuotedPrice,
		Hours:         booking.Hours,
		ScheduledDate: booking.ScheduledDate,
		Notes:         booking.Notes,
		Status:        booking.Status,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
		CancelledAt:   booking.CancelledAt,
	}
	if booking.ServiceID != nil {
		id := booking.ServiceID.String()
		resp.ServiceID = &id
	}
	return resp
}
