package adaptor

import (
	"net/http"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/usecase"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.EscrowService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.EscrowService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// PreviewFees handles POST /api/fees/preview
func (h *PaymentHandler) PreviewFees(w http.ResponseWriter, r *http.Request) {
	var req request.FeePreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	preview, err := h.service.PreviewFees(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "preview fees")
		return
	}

	utils.ResponseSuccess(w, "success", preview)
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// Verify handles POST /api/admin/payments/{id}/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.Verify(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, paymentMessage(entity.PaymentStatusVerified, payment.Status), payment)
}

// Release handles POST /api/admin/payments/{id}/release
func (h *PaymentHandler) Release(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.ReleasePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.Release(r.Context(), actor, chi.URLParam(r, "id"), entity.ReleaseTrigger(req.Trigger))
	if err != nil {
		handleServiceError(w, h.log, err, "release payment")
		return
	}

	utils.ResponseSuccess(w, paymentMessage(entity.PaymentStatusReleased, payment.Status), payment)
}

// Fail handles POST /api/admin/payments/{id}/fail
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.FailPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.Fail(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "fail payment")
		return
	}

	utils.ResponseSuccess(w, paymentMessage(entity.PaymentStatusFailed, payment.Status), payment)
}

// paymentMessage reports the state a repeated or losing transition left the payment in.
func paymentMessage(want, got entity.PaymentStatus) string {
	if got == want {
		return "payment " + string(got)
	}
	return "payment already " + string(got)
}
