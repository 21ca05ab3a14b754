package adaptor

import (
	"net/http"
	"strconv"

	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/usecase"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

type EarningsHandler struct {
	service usecase.EarningsService
	log     *zap.Logger
}

func NewEarningsHandler(service usecase.EarningsService, log *zap.Logger) *EarningsHandler {
	return &EarningsHandler{
		service: service,
		log:     log.With(zap.String("handler", "earnings")),
	}
}

// Summary handles GET /api/earnings/summary?provider_id=&window=&from=&to=
func (h *EarningsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.EarningsSummaryRequest{
		ProviderID: query.Get("provider_id"),
		Window:     query.Get("window"),
		From:       query.Get("from"),
		To:         query.Get("to"),
	}

	summary, err := h.service.Summarize(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "earnings summary")
		return
	}

	utils.ResponseSuccess(w, "success", summary)
}

// History handles GET /api/earnings/history?provider_id=&cursor=&page_size=
func (h *EarningsHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.EarningsHistoryRequest{
		ProviderID: query.Get("provider_id"),
		Cursor:     query.Get("cursor"),
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "page_size must be an integer", nil)
			return
		}
		req.PageSize = size
	}

	history, err := h.service.History(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "earnings history")
		return
	}

	utils.ResponseSuccess(w, "success", history)
}
