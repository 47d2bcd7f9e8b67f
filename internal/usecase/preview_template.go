package usecase

import (
	"context"

	"github.com/xavierca1/zap-relay/internal/entity"
)

// PreviewTemplateUseCase renderiza o template contra um registro real e
// guarda o resultado como preview — o mesmo caminho de render do envio,
// então o que o operador vê é o que sai no WhatsApp.
type PreviewTemplateUseCase struct {
	Templates TemplateRepositoryInterface
	ERP       SnapshotProvider
}

func NewPreviewTemplateUseCase(templates TemplateRepositoryInterface, erp SnapshotProvider) *PreviewTemplateUseCase {
	return &PreviewTemplateUseCase{Templates: templates, ERP: erp}
}

func (uc *PreviewTemplateUseCase) Execute(ctx context.Context, templateID, model string, recordID int64) (string, error) {
	tpl, err := uc.Templates.FindByID(ctx, templateID)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return "", &entity.TemplateNotFoundError{TemplateID: templateID}
	}

	object, err := uc.ERP.FetchSnapshot(ctx, model, recordID)
	if err != nil {
		return "", err
	}
	user, company, err := uc.ERP.FetchEnvironment(ctx)
	if err != nil {
		return "", err
	}

	rendered, err := Render(tpl.Body, entity.RenderContext{
		Object:  object,
		User:    user,
		Company: company,
	})
	if err != nil {
		return "", err
	}

	if err := uc.Templates.UpdatePreview(ctx, tpl.ID, rendered); err != nil {
		return "", err
	}

	return rendered, nil
}
