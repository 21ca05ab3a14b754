package response

import (
	"time"

	"talent-escrow/internal/fee"
)

type EarningsSummaryResponse struct {
	ProviderID     string    `json:"provider_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	TotalEarnings  fee.Money `json:"total_earnings"`
	CompletedCount int64     `json:"completed_count"`
	PendingCount   int64     `json:"pending_count"`
	PendingAmount  fee.Money `json:"pending_amount"`
	AveragePayout  fee.Money `json:"average_payout"`
}

type EarningsHistoryResponse struct {
	Items      []PaymentResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
