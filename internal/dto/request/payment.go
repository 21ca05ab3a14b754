package request

import "talent-escrow/internal/fee"

// CreatePaymentRequest carries only the gross amount. Fee parts sent by a client are never read.
type CreatePaymentRequest struct {
	Amount        fee.Money `json:"amount"`
	PaymentMethod string    `json:"payment_method" validate:"required,max=50"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"max=255"`
}

type ReleasePaymentRequest struct {
	Trigger string `json:"trigger" validate:"required,oneof=delivery_confirmed deadline_elapsed"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type FeePreviewRequest struct {
	Amount fee.Money `json:"amount"`
}
