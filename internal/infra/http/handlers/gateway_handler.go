package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

type GatewayHandler struct {
	Gateways usecase.GatewayRepositoryInterface
	Logs     usecase.DeliveryLogRepositoryInterface
}

func NewGatewayHandler(gateways usecase.GatewayRepositoryInterface, logs usecase.DeliveryLogRepositoryInterface) *GatewayHandler {
	return &GatewayHandler{Gateways: gateways, Logs: logs}
}

type createGatewayRequest struct {
	Name    string                `json:"name"`
	Variant entity.GatewayVariant `json:"variant"`

	// external_rest
	URL            string            `json:"url,omitempty"`
	Method         string            `json:"method,omitempty"`
	HeaderTemplate map[string]string `json:"header_template,omitempty"`
	BodyTemplate   string            `json:"body_template,omitempty"`
	APIKeyValue    string            `json:"api_key_value,omitempty"`

	// meta_cloud_api
	PhoneNumberID string `json:"phone_number_id,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
	SenderName    string `json:"sender_name,omitempty"`
}

func (h *GatewayHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGatewayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}

	var gw *entity.Gateway
	var err error

	switch req.Variant {
	case entity.VariantExternalRest:
		gw, err = entity.NewExternalRestGateway(req.Name, entity.ExternalRestConfig{
			URL:            req.URL,
			Method:         req.Method,
			HeaderTemplate: req.HeaderTemplate,
			BodyTemplate:   req.BodyTemplate,
			APIKeyValue:    req.APIKeyValue,
		})
	case entity.VariantMetaCloud:
		gw, err = entity.NewMetaCloudGateway(req.Name, entity.MetaCloudConfig{
			PhoneNumberID: req.PhoneNumberID,
			AccessToken:   req.AccessToken,
			SenderName:    req.SenderName,
		})
	default:
		http.Error(w, "variant deve ser external_rest ou meta_cloud_api", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	if err := h.Gateways.Create(r.Context(), gw); err != nil {
		writeError(w, err)
		return
	}

	// A resposta nunca devolve segredo — os campos sensíveis têm json:"-"
	writeJSON(w, http.StatusCreated, gw)
}

func (h *GatewayHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	gateways, err := h.Gateways.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": gateways})
}

func (h *GatewayHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := h.Logs.List(r.Context(), usecase.DeliveryLogFilter{GatewayID: id})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (h *GatewayHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *GatewayHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *GatewayHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")

	if err := h.Gateways.SetActive(r.Context(), id, active); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}
