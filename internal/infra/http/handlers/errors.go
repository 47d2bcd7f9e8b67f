package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError traduz os erros tipados do domínio para status HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var renderErr *entity.TemplateRenderError
	var phoneErr *entity.InvalidPhoneNumberError
	var gwNotFound *entity.GatewayNotFoundError
	var gwInactive *entity.GatewayInactiveError
	var tplNotFound *entity.TemplateNotFoundError
	var recNotFound *entity.SourceRecordNotFoundError
	var enqueueErr *entity.EnqueueError
	var valErr usecase.ValidationError

	switch {
	case errors.As(err, &renderErr), errors.As(err, &phoneErr), errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &gwNotFound), errors.As(err, &tplNotFound), errors.As(err, &recNotFound):
		status = http.StatusNotFound
	case errors.As(err, &gwInactive):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrGatewayNameTaken):
		status = http.StatusConflict
	case errors.As(err, &enqueueErr):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
