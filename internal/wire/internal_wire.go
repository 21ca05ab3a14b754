package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireInternal(r chi.Router, internalHandler *adaptor.InternalHandler, config *utils.Config, log *zap.Logger) {
	r.Route("/api/internal", func(r chi.Router) {
		r.Use(middleware.ServiceKey(config.Auth.ServiceKeyHash, log))

		r.Post("/escrow/sweep", internalHandler.Sweep)
	})
}
