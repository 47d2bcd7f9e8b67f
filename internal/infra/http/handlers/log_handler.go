package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

type LogHandler struct {
	Logs  usecase.DeliveryLogRepositoryInterface
	Retry *usecase.RetryController
}

func NewLogHandler(logs usecase.DeliveryLogRepositoryInterface, retry *usecase.RetryController) *LogHandler {
	return &LogHandler{Logs: logs, Retry: retry}
}

func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, err := h.Logs.List(r.Context(), usecase.DeliveryLogFilter{
		Status:    entity.DeliveryStatus(q.Get("status")),
		GatewayID: q.Get("gateway_id"),
		Phone:     q.Get("phone"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// HandleGet devolve a entrada com a cadeia completa de retentativas.
func (h *LogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	chain, err := h.Logs.FindChain(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(chain) == 0 {
		http.Error(w, "entrada de log não encontrada", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry": chain[0],
		"chain": chain,
	})
}

// HandleRetry é o retry manual do operador: vale para qualquer entrada
// failed, inclusive erros definitivos que o retry automático não toca.
func (h *LogHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	retryID, err := h.Retry.ManualRetry(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"retry_of":     id,
		"log_entry_id": retryID,
		"status":       entity.StatusQueued,
	})
}

// HandleCancel cancela (best-effort) uma entrega ainda na fila.
func (h *LogHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Retry.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"log_entry_id": id,
		"status":       entity.StatusFailed,
		"detail":       "canceled before dispatch",
	})
}
