package adaptor

import (
	"net/http"

	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/usecase"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProviderHandler struct {
	service usecase.ProviderService
	log     *zap.Logger
}

func NewProviderHandler(service usecase.ProviderService, log *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log.With(zap.String("handler", "provider")),
	}
}

// UpsertTerms handles PUT /api/admin/providers/{id}
func (h *ProviderHandler) UpsertTerms(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.UpsertProviderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	provider, err := h.service.UpsertTerms(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "upsert provider terms")
		return
	}

	utils.ResponseSuccess(w, "provider terms saved", provider)
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get provider")
		return
	}

	utils.ResponseSuccess(w, "success", provider)
}
