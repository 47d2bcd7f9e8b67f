package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

type SendMessageInput struct {
	GatewayID  string `json:"gateway_id"`
	TemplateID string `json:"template_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Phone      string `json:"phone"`

	SourceModel    string `json:"source_model,omitempty"`
	SourceRecordID int64  `json:"source_record_id,omitempty"`
}

type SendMessageOutput struct {
	LogEntryID string                `json:"log_entry_id"`
	Status     entity.DeliveryStatus `json:"status"`
	Message    string                `json:"message"`
	Phone      string                `json:"phone"`
}

// SendMessageUseCase é o dispatcher: valida, renderiza, monta a request,
// grava a entrada de log e enfileira. Nunca faz a chamada HTTP aqui —
// quem entrega é o worker, fora da thread do caller.
type SendMessageUseCase struct {
	Gateways  GatewayRepositoryInterface
	Templates TemplateRepositoryInterface
	Logs      DeliveryLogRepositoryInterface
	Queue     QueueProducerInterface
	ERP       SnapshotProvider

	DefaultCountryCode string
}

func NewSendMessageUseCase(
	gateways GatewayRepositoryInterface,
	templates TemplateRepositoryInterface,
	logs DeliveryLogRepositoryInterface,
	producer QueueProducerInterface,
	erp SnapshotProvider,
	defaultCountryCode string,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		Gateways:           gateways,
		Templates:          templates,
		Logs:               logs,
		Queue:              producer,
		ERP:                erp,
		DefaultCountryCode: defaultCountryCode,
	}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, input SendMessageInput) (*SendMessageOutput, error) {
	if errs := ValidateSendMessageInput(input); len(errs) > 0 {
		return nil, errs[0]
	}

	gw, err := uc.Gateways.FindByID(ctx, input.GatewayID)
	if err != nil {
		return nil, err
	}
	if gw == nil {
		return nil, &entity.GatewayNotFoundError{GatewayID: input.GatewayID}
	}
	if !gw.Active {
		return nil, &entity.GatewayInactiveError{GatewayID: input.GatewayID}
	}

	phone, err := NormalizePhone(input.Phone, uc.DefaultCountryCode)
	if err != nil {
		return nil, err
	}

	message := input.Message
	templateID := ""

	if input.TemplateID != "" {
		message, templateID, err = uc.renderFromTemplate(ctx, input, gw)
		if err != nil {
			return nil, err
		}
	}

	spec, err := gateway.BuildRequest(gw, message, phone)
	if err != nil {
		return nil, err
	}

	// No log só entra a cópia redigida — credencial nunca persiste em claro
	redacted, err := json.Marshal(gateway.Redact(spec, gw.Secrets()))
	if err != nil {
		return nil, err
	}

	entry := entity.NewDeliveryLogEntry(gw.ID, phone, message)
	entry.TemplateID = templateID
	entry.SourceModel = input.SourceModel
	entry.SourceRecordID = input.SourceRecordID
	entry.RequestPayload = string(redacted)

	if err := uc.Logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	job := queue.DeliveryJob{LogEntryID: entry.ID, Attempt: 0}
	if err := uc.Queue.PublishDelivery(ctx, job); err != nil {
		// A fila caiu: a entrada não pode ficar órfã em queued.
		// Marca como failed na hora e devolve o erro tipado.
		entry.Status = entity.StatusFailed
		entry.ErrorDetail = fmt.Sprintf("enqueue failed: %v", err)
		if upErr := uc.Logs.Update(ctx, entry); upErr != nil {
			log.Printf("❌ Falha ao marcar entrada %s como failed: %v", entry.ID, upErr)
		}
		return &SendMessageOutput{
				LogEntryID: entry.ID,
				Status:     entity.StatusFailed,
				Message:    message,
				Phone:      phone,
			}, &entity.EnqueueError{
				LogEntryID: entry.ID,
				Cause:      err,
			}
	}

	return &SendMessageOutput{
		LogEntryID: entry.ID,
		Status:     entity.StatusQueued,
		Message:    message,
		Phone:      phone,
	}, nil
}

func (uc *SendMessageUseCase) renderFromTemplate(ctx context.Context, input SendMessageInput, gw *entity.Gateway) (string, string, error) {
	tpl, err := uc.Templates.FindByID(ctx, input.TemplateID)
	if err != nil {
		return "", "", err
	}
	if tpl == nil {
		return "", "", &entity.TemplateNotFoundError{TemplateID: input.TemplateID}
	}

	if !tpl.AppliesTo(gw.Variant) {
		return "", "", fmt.Errorf("template %s does not support gateway variant %s", tpl.ID, gw.Variant)
	}
	if tpl.ModelName != input.SourceModel {
		return "", "", fmt.Errorf("template %s is for model %s, got %s", tpl.ID, tpl.ModelName, input.SourceModel)
	}

	object, err := uc.ERP.FetchSnapshot(ctx, input.SourceModel, input.SourceRecordID)
	if err != nil {
		return "", "", err
	}

	user, company, err := uc.ERP.FetchEnvironment(ctx)
	if err != nil {
		return "", "", err
	}

	rendered, err := Render(tpl.Body, entity.RenderContext{
		Object:  object,
		User:    user,
		Company: company,
	})
	if err != nil {
		return "", "", err
	}

	return rendered, tpl.ID, nil
}
