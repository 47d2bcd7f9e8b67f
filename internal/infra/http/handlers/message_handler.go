package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/http/middleware"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

type MessageHandler struct {
	SendMessageUseCase *usecase.SendMessageUseCase
}

func NewMessageHandler(uc *usecase.SendMessageUseCase) *MessageHandler {
	return &MessageHandler{SendMessageUseCase: uc}
}

// HandleSend aceita a mensagem, enfileira e responde na hora com o ID da
// entrada de log — a entrega em si acontece no worker.
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}

	output, err := h.SendMessageUseCase.Execute(r.Context(), input)
	if err != nil {
		var enqueueErr *entity.EnqueueError
		if errors.As(err, &enqueueErr) && output != nil {
			// A entrada de log existe e já está marcada como failed
			middleware.RecordDispatch(string(entity.StatusFailed))
			writeJSON(w, http.StatusBadGateway, output)
			return
		}
		writeError(w, err)
		return
	}

	middleware.RecordDispatch(string(entity.StatusQueued))
	writeJSON(w, http.StatusAccepted, output)
}
