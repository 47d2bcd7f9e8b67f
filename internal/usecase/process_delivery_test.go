package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

func deliveryFixture(t *testing.T) (*entity.Gateway, *entity.DeliveryLogEntry, *MockGatewayRepository, *MockDeliveryLogRepository) {
	t.Helper()

	gw := testExternalGateway(t)
	entry := entity.NewDeliveryLogEntry(gw.ID, "+5511999998888", "oi")

	mockGateways := new(MockGatewayRepository)
	mockGateways.On("FindByID", mock.Anything, gw.ID).Return(gw, nil)

	mockLogs := NewMockDeliveryLogRepository()
	mockLogs.Entries[entry.ID] = entry
	mockLogs.On("FindByID", mock.Anything, entry.ID).Return(nil, nil)
	mockLogs.On("Update", mock.Anything, mock.Anything).Return(nil)
	mockLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	return gw, entry, mockGateways, mockLogs
}

func newProcessUC(logs *MockDeliveryLogRepository, gateways *MockGatewayRepository, sender *MockHTTPSender, producer *MockQueueProducer, maxRetries int) *ProcessDeliveryUseCase {
	retry := NewRetryController(logs, producer, maxRetries)
	return NewProcessDeliveryUseCase(logs, gateways, sender, retry, producer, 5*time.Second)
}

// TestHandleDeliverySuccess - 2xx marca a entrada como sent com a resposta gravada
func TestHandleDeliverySuccess(t *testing.T) {
	ctx := context.Background()
	_, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockSender := new(MockHTTPSender)
	mockSender.On("Do", mock.Anything, mock.Anything).
		Return(&gateway.Response{StatusCode: 200, Body: []byte(`{"id":"wamid.1"}`)}, nil)

	mockQueue := new(MockQueueProducer)
	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	stored := mockLogs.Entries[entry.ID]
	assert.Equal(t, entity.StatusSent, stored.Status)
	assert.Equal(t, 200, stored.ResponseCode)
	assert.Contains(t, stored.ResponseBody, "wamid.1")
	mockQueue.AssertNotCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
}

// TestHandleDeliveryTransiente - 500 falha a entrada e agenda retry encadeado
func TestHandleDeliveryTransiente(t *testing.T) {
	ctx := context.Background()
	_, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockSender := new(MockHTTPSender)
	mockSender.On("Do", mock.Anything, mock.Anything).
		Return(&gateway.Response{StatusCode: 500, Body: []byte("upstream down")}, nil)

	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	// A entrada da tentativa vira retrying depois do encadeamento
	stored := mockLogs.Entries[entry.ID]
	assert.Equal(t, entity.StatusRetrying, stored.Status)
	assert.Equal(t, 500, stored.ResponseCode)

	// E existe uma entrada nova queued apontando para ela
	var retry *entity.DeliveryLogEntry
	for _, e := range mockLogs.Entries {
		if e.RetryOfID == entry.ID {
			retry = e
		}
	}
	assert.NotNil(t, retry)
	assert.Equal(t, entity.StatusQueued, retry.Status)
	assert.Equal(t, 1, retry.RetryCount)

	mockQueue.AssertCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
}

// TestHandleDeliveryTerminal - 401 falha em definitivo, alerta o operador, sem retry
func TestHandleDeliveryTerminal(t *testing.T) {
	ctx := context.Background()
	gw, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockSender := new(MockHTTPSender)
	mockSender.On("Do", mock.Anything, mock.Anything).
		Return(&gateway.Response{StatusCode: 401, Body: []byte("invalid api key")}, nil)

	mockQueue := new(MockQueueProducer)
	mockAlerts := new(MockAlertService)
	mockAlerts.On("SendDeliveryFailure", gw.Name, entry.PhoneNumber, mock.Anything).Return(nil)

	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)
	uc.Alerts = mockAlerts

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	stored := mockLogs.Entries[entry.ID]
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Equal(t, 401, stored.ResponseCode)
	assert.Contains(t, stored.ErrorDetail, "invalid api key")

	mockQueue.AssertNotCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
	mockAlerts.AssertCalled(t, "SendDeliveryFailure", gw.Name, entry.PhoneNumber, mock.Anything)
}

// TestHandleDeliveryEsgotado - Transiente no teto de tentativas também alerta
func TestHandleDeliveryEsgotado(t *testing.T) {
	ctx := context.Background()
	gw, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockSender := new(MockHTTPSender)
	mockSender.On("Do", mock.Anything, mock.Anything).
		Return(&gateway.Response{StatusCode: 503, Body: []byte("try later")}, nil)

	mockQueue := new(MockQueueProducer)
	mockAlerts := new(MockAlertService)
	mockAlerts.On("SendDeliveryFailure", gw.Name, entry.PhoneNumber, mock.Anything).Return(nil)

	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)
	uc.Alerts = mockAlerts

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 3))

	assert.Equal(t, entity.StatusFailed, mockLogs.Entries[entry.ID].Status)
	mockQueue.AssertNotCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
	mockAlerts.AssertCalled(t, "SendDeliveryFailure", gw.Name, entry.PhoneNumber, mock.Anything)
}

// TestHandleDeliveryIgnoraNaoQueued - Redelivery da fila ou cancelamento não reexecuta
func TestHandleDeliveryIgnoraNaoQueued(t *testing.T) {
	ctx := context.Background()
	_, entry, mockGateways, mockLogs := deliveryFixture(t)

	assert.NoError(t, entry.Transition(entity.StatusSent))
	mockLogs.Entries[entry.ID] = entry

	mockSender := new(MockHTTPSender)
	uc := newProcessUC(mockLogs, mockGateways, mockSender, new(MockQueueProducer), 3)

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	assert.Equal(t, entity.StatusSent, mockLogs.Entries[entry.ID].Status)
	mockSender.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

// TestHandleDeliveryEntradaSumiu - Entrada apagada é ignorada sem requeue
func TestHandleDeliveryEntradaSumiu(t *testing.T) {
	ctx := context.Background()

	mockLogs := NewMockDeliveryLogRepository()
	mockLogs.On("FindByID", mock.Anything, "log-404").Return(nil, nil)

	uc := newProcessUC(mockLogs, new(MockGatewayRepository), new(MockHTTPSender), new(MockQueueProducer), 3)

	assert.NoError(t, uc.HandleDelivery(ctx, "log-404", 0))
}

// TestHandleDeliveryGatewayDesativado - Gateway inativo falha em definitivo
func TestHandleDeliveryGatewayDesativado(t *testing.T) {
	ctx := context.Background()
	gw, entry, mockGateways, mockLogs := deliveryFixture(t)

	gw.Deactivate()

	mockSender := new(MockHTTPSender)
	mockQueue := new(MockQueueProducer)
	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	stored := mockLogs.Entries[entry.ID]
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorDetail, "not active")
	mockSender.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	mockQueue.AssertNotCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
}

// TestHandleDeliveryRateLimitReagenda - Teto de QPS devolve o job sem gastar tentativa
func TestHandleDeliveryRateLimitReagenda(t *testing.T) {
	ctx := context.Background()
	gw, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockLimiter := new(MockRateLimiter)
	mockLimiter.On("Allow", mock.Anything, gw.ID).Return(false, nil)

	mockSender := new(MockHTTPSender)
	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)
	uc.Limiter = mockLimiter

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 2))

	// Segue queued, reagendado com o MESMO contador de tentativa
	assert.Equal(t, entity.StatusQueued, mockLogs.Entries[entry.ID].Status)
	job := mockQueue.Calls[0].Arguments.Get(1).(queue.DeliveryJob)
	assert.Equal(t, entry.ID, job.LogEntryID)
	assert.Equal(t, 2, job.Attempt)
	mockSender.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

// TestHandleDeliveryErroDeTransporte - Falha de conexão é transiente e encadeia retry
func TestHandleDeliveryErroDeTransporte(t *testing.T) {
	ctx := context.Background()
	_, entry, mockGateways, mockLogs := deliveryFixture(t)

	mockSender := new(MockHTTPSender)
	mockSender.On("Do", mock.Anything, mock.Anything).Return(nil, timeoutErr{})

	mockQueue := new(MockQueueProducer)
	mockQueue.On("PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := newProcessUC(mockLogs, mockGateways, mockSender, mockQueue, 3)

	assert.NoError(t, uc.HandleDelivery(ctx, entry.ID, 0))

	stored := mockLogs.Entries[entry.ID]
	assert.Equal(t, entity.StatusRetrying, stored.Status)
	assert.Contains(t, stored.ErrorDetail, "timeout")
	mockQueue.AssertCalled(t, "PublishDeliveryIn", mock.Anything, mock.Anything, mock.Anything)
}
