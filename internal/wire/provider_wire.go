package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireProvider(r chi.Router, providerHandler *adaptor.ProviderHandler, config *utils.Config, log *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.Auth.JWTSecret, log))

		r.Get("/api/providers/{id}", providerHandler.GetProvider)
		r.With(middleware.RequireRole(log, utils.RoleAdmin)).Put("/api/admin/providers/{id}", providerHandler.UpsertTerms)
	})
}
