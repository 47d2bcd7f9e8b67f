package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/zap-relay/internal/entity"
)

func testExternalGateway(t *testing.T) *entity.Gateway {
	t.Helper()
	gw, err := entity.NewExternalRestGateway("d360", entity.ExternalRestConfig{
		URL:            "https://waba.360dialog.io/v1/messages",
		Method:         "POST",
		HeaderTemplate: map[string]string{"D360-API-KEY": "{api_key}"},
		BodyTemplate:   `{"to": "{phone}", "text": {"body": "{message}"}}`,
		APIKeyValue:    "super-secreta",
	})
	assert.NoError(t, err)
	return gw
}

// TestSendMessageSuccess - Fluxo feliz: valida, grava queued e enfileira
func TestSendMessageSuccess(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	mockLogs := NewMockDeliveryLogRepository()
	mockLogs.On("Create", ctx, mock.Anything).Return(nil)

	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDelivery", ctx, mock.Anything).Return(nil)

	uc := NewSendMessageUseCase(mockGateways, nil, mockLogs, mockQueue, nil, "55")

	out, err := uc.Execute(ctx, SendMessageInput{
		GatewayID: gw.ID,
		Phone:     "(11) 99999-8888",
		Message:   "Olá!",
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusQueued, out.Status)
	assert.Equal(t, "+5511999998888", out.Phone)
	assert.NotEmpty(t, out.LogEntryID)

	// A entrada persistida guarda a request redigida, nunca a credencial
	created := mockLogs.Entries[out.LogEntryID]
	assert.NotNil(t, created)
	assert.Equal(t, entity.StatusQueued, created.Status)
	assert.NotEmpty(t, created.RequestPayload)
	assert.NotContains(t, created.RequestPayload, "super-secreta")
	assert.Contains(t, created.RequestPayload, "+5511999998888")

	mockQueue.AssertCalled(t, "PublishDelivery", ctx, mock.Anything)
}

// TestSendMessageGatewayInexistente - Gateway desconhecido devolve erro tipado
func TestSendMessageGatewayInexistente(t *testing.T) {
	ctx := context.Background()

	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, "gw-404").Return(nil, nil)

	uc := NewSendMessageUseCase(mockGateways, nil, NewMockDeliveryLogRepository(), new(MockQueueProducer), nil, "55")

	_, err := uc.Execute(ctx, SendMessageInput{
		GatewayID: "gw-404",
		Phone:     "+5511999998888",
		Message:   "oi",
	})

	var notFound *entity.GatewayNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

// TestSendMessageGatewayInativo - Gateway desativado rejeita o envio
func TestSendMessageGatewayInativo(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	gw.Deactivate()

	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	uc := NewSendMessageUseCase(mockGateways, nil, NewMockDeliveryLogRepository(), new(MockQueueProducer), nil, "55")

	_, err := uc.Execute(ctx, SendMessageInput{
		GatewayID: gw.ID,
		Phone:     "+5511999998888",
		Message:   "oi",
	})

	var inactive *entity.GatewayInactiveError
	assert.True(t, errors.As(err, &inactive))
}

// TestSendMessageFilaFora - Fila recusando job marca a entrada como failed na hora
func TestSendMessageFilaFora(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	mockLogs := NewMockDeliveryLogRepository()
	mockLogs.On("Create", ctx, mock.Anything).Return(nil)
	mockLogs.On("Update", ctx, mock.Anything).Return(nil)

	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDelivery", ctx, mock.Anything).Return(errors.New("amqp connection refused"))

	uc := NewSendMessageUseCase(mockGateways, nil, mockLogs, mockQueue, nil, "55")

	out, err := uc.Execute(ctx, SendMessageInput{
		GatewayID: gw.ID,
		Phone:     "+5511999998888",
		Message:   "oi",
	})

	var enqueueErr *entity.EnqueueError
	assert.True(t, errors.As(err, &enqueueErr))
	assert.NotNil(t, out)
	assert.Equal(t, entity.StatusFailed, out.Status)

	stored := mockLogs.Entries[out.LogEntryID]
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorDetail, "enqueue failed")
}

// TestSendMessageComTemplate - Ponta a ponta: snapshot do ERP renderizado no corpo
func TestSendMessageComTemplate(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	tpl, err := entity.NewTemplate("saudacao", "crm.lead", "Hi ${object.name}", nil)
	assert.NoError(t, err)

	mockTemplates := new(MockTemplateRepository)
	mockTemplates.On("FindByID", ctx, tpl.ID).Return(tpl, nil)

	mockERP := new(MockSnapshotProvider)
	mockERP.On("FetchSnapshot", ctx, "crm.lead", int64(42)).
		Return(entity.RecordSnapshot{"name": "Ada"}, nil)
	mockERP.On("FetchEnvironment", ctx).
		Return(entity.RecordSnapshot{}, entity.RecordSnapshot{}, nil)

	mockLogs := NewMockDeliveryLogRepository()
	mockLogs.On("Create", ctx, mock.Anything).Return(nil)

	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDelivery", ctx, mock.Anything).Return(nil)

	uc := NewSendMessageUseCase(mockGateways, mockTemplates, mockLogs, mockQueue, mockERP, "55")

	out, err := uc.Execute(ctx, SendMessageInput{
		GatewayID:      gw.ID,
		TemplateID:     tpl.ID,
		Phone:          "+5511999998888",
		SourceModel:    "crm.lead",
		SourceRecordID: 42,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Hi Ada", out.Message)

	created := mockLogs.Entries[out.LogEntryID]
	assert.Equal(t, tpl.ID, created.TemplateID)
	assert.Equal(t, "crm.lead", created.SourceModel)
	assert.Equal(t, int64(42), created.SourceRecordID)
}

// TestSendMessageTemplateIncompativel - Template restrito a outra variante é recusado
func TestSendMessageTemplateIncompativel(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	tpl, err := entity.NewTemplate("so-meta", "crm.lead", "oi", []entity.GatewayVariant{entity.VariantMetaCloud})
	assert.NoError(t, err)

	mockTemplates := new(MockTemplateRepository)
	mockTemplates.On("FindByID", ctx, tpl.ID).Return(tpl, nil)

	uc := NewSendMessageUseCase(mockGateways, mockTemplates, NewMockDeliveryLogRepository(), new(MockQueueProducer), new(MockSnapshotProvider), "55")

	_, err = uc.Execute(ctx, SendMessageInput{
		GatewayID:      gw.ID,
		TemplateID:     tpl.ID,
		Phone:          "+5511999998888",
		SourceModel:    "crm.lead",
		SourceRecordID: 42,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not support gateway variant")
}

// TestSendMessageTelefoneInvalido - Número que não normaliza aborta antes de gravar
func TestSendMessageTelefoneInvalido(t *testing.T) {
	ctx := context.Background()

	gw := testExternalGateway(t)
	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", ctx, gw.ID).Return(gw, nil)

	mockLogs := NewMockDeliveryLogRepository()

	uc := NewSendMessageUseCase(mockGateways, nil, mockLogs, new(MockQueueProducer), nil, "55")

	_, err := uc.Execute(ctx, SendMessageInput{
		GatewayID: gw.ID,
		Phone:     "not-a-number",
		Message:   "oi",
	})

	var phoneErr *entity.InvalidPhoneNumberError
	assert.True(t, errors.As(err, &phoneErr))
	assert.Empty(t, mockLogs.Entries)
}
