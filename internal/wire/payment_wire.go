package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, config *utils.Config, log *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.Auth.JWTSecret, log))

		r.Post("/api/fees/preview", paymentHandler.PreviewFees)
		r.Get("/api/payments/{id}", paymentHandler.GetPayment)
	})

	r.Route("/api/admin/payments/{id}", func(r chi.Router) {
		r.Use(middleware.Auth(config.Auth.JWTSecret, log))

		r.With(middleware.RequireRole(log, utils.RoleAdmin)).Post("/verify", paymentHandler.Verify)
		r.With(middleware.RequireRole(log, utils.RoleAdmin)).Post("/fail", paymentHandler.Fail)
		// Clients may release with delivery_confirmed; the service enforces the trigger rule.
		r.With(middleware.RequireRole(log, utils.RoleAdmin, utils.RoleClient)).Post("/release", paymentHandler.Release)
	})
}
