package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireEarnings(r chi.Router, earningsHandler *adaptor.EarningsHandler, config *utils.Config, log *zap.Logger) {
	r.Route("/api/earnings", func(r chi.Router) {
		r.Use(middleware.Auth(config.Auth.JWTSecret, log))
		r.Use(middleware.RequireRole(log, utils.RoleProvider, utils.RoleAdmin))

		r.Get("/summary", earningsHandler.Summary)
		r.Get("/history", earningsHandler.History)
	})
}
