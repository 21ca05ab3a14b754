package request

// EarningsSummaryRequest selects a window either by name or by explicit bounds.
// Explicit From/To win over Window.
type EarningsSummaryRequest struct {
	ProviderID string `json:"provider_id" validate:"omitempty,uuid"`
	Window     string `json:"window" validate:"omitempty,oneof=7d 30d 90d ytd all"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type EarningsHistoryRequest struct {
	ProviderID string `json:"provider_id" validate:"omitempty,uuid"`
	Cursor     string `json:"cursor"`
	PageSize   int    `json:"page_size" validate:"gte=0,lte=100"`
}
