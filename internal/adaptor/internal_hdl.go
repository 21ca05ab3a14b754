package adaptor

import (
	"context"
	"net/http"

	"talent-escrow/internal/worker"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

// Sweeper runs one deadline sweep on demand.
type Sweeper interface {
	SweepOnce(ctx context.Context) (worker.SweepResult, error)
}

type InternalHandler struct {
	sweeper Sweeper
	log     *zap.Logger
}

func NewInternalHandler(sweeper Sweeper, log *zap.Logger) *InternalHandler {
	return &InternalHandler{
		sweeper: sweeper,
		log:     log.With(zap.String("handler", "internal")),
	}
}

// Sweep handles POST /api/internal/escrow/sweep
func (h *InternalHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.SweepOnce(r.Context())
	if err != nil {
		h.log.Error("on-demand sweep failed", zap.Error(err))
		utils.ResponseInternalError(w, "Sweep failed")
		return
	}

	utils.ResponseSuccess(w, "sweep finished", result)
}

type HealthHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewHealthHandler(db Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log.With(zap.String("handler", "health"))}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		utils.ResponseUnavailable(w, "database unavailable")
		return
	}
	utils.ResponseSuccess(w, "OK", nil)
}
