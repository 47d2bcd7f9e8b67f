package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

type TemplateHandler struct {
	Templates usecase.TemplateRepositoryInterface
	Preview   *usecase.PreviewTemplateUseCase
}

func NewTemplateHandler(templates usecase.TemplateRepositoryInterface, preview *usecase.PreviewTemplateUseCase) *TemplateHandler {
	return &TemplateHandler{Templates: templates, Preview: preview}
}

type createTemplateRequest struct {
	Name      string                  `json:"name"`
	ModelName string                  `json:"model_name"`
	Body      string                  `json:"body"`
	Variants  []entity.GatewayVariant `json:"variants,omitempty"`
}

func (h *TemplateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}

	tpl, err := entity.NewTemplate(req.Name, req.ModelName, req.Body, req.Variants)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	if err := h.Templates.Create(r.Context(), tpl); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tpl)
}

func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": templates})
}

type previewRequest struct {
	SourceModel    string `json:"source_model"`
	SourceRecordID int64  `json:"source_record_id"`
}

// HandlePreview renderiza o template contra um registro real, para o
// operador conferir a mensagem antes de mandar de verdade.
func (h *TemplateHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}

	rendered, err := h.Preview.Execute(r.Context(), id, req.SourceModel, req.SourceRecordID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"template_id":      id,
		"rendered_message": rendered,
	})
}
