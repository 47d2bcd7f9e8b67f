package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

type MockGatewayRepository struct {
	mock.Mock
}

func (m *MockGatewayRepository) Create(ctx context.Context, gw *entity.Gateway) error {
	args := m.Called(ctx, gw)
	return args.Error(0)
}

func (m *MockGatewayRepository) FindByID(ctx context.Context, id string) (*entity.Gateway, error) {
	args := m.Called(ctx, id)
	if gw := args.Get(0); gw != nil {
		return gw.(*entity.Gateway), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGatewayRepository) List(ctx context.Context) ([]entity.Gateway, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, tpl *entity.Template) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id string) (*entity.Template, error) {
	args := m.Called(ctx, id)
	if tpl := args.Get(0); tpl != nil {
		return tpl.(*entity.Template), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context) ([]entity.Template, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Template), args.Error(1)
}

func (m *MockTemplateRepository) UpdatePreview(ctx context.Context, id, preview string) error {
	args := m.Called(ctx, id, preview)
	return args.Error(0)
}

// MockDeliveryLogRepository guarda as entradas em memória para os testes
// de cadeia de retry conseguirem reler o que foi criado.
type MockDeliveryLogRepository struct {
	mock.Mock
	Entries map[string]*entity.DeliveryLogEntry
}

func NewMockDeliveryLogRepository() *MockDeliveryLogRepository {
	return &MockDeliveryLogRepository{Entries: make(map[string]*entity.DeliveryLogEntry)}
}

func (m *MockDeliveryLogRepository) Create(ctx context.Context, e *entity.DeliveryLogEntry) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		copied := *e
		m.Entries[e.ID] = &copied
	}
	return args.Error(0)
}

func (m *MockDeliveryLogRepository) FindByID(ctx context.Context, id string) (*entity.DeliveryLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*entity.DeliveryLogEntry), args.Error(1)
	}
	if e, ok := m.Entries[id]; ok {
		copied := *e
		return &copied, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeliveryLogRepository) Update(ctx context.Context, e *entity.DeliveryLogEntry) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		copied := *e
		m.Entries[e.ID] = &copied
	}
	return args.Error(0)
}

func (m *MockDeliveryLogRepository) List(ctx context.Context, filter DeliveryLogFilter) ([]entity.DeliveryLogEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]entity.DeliveryLogEntry), args.Error(1)
}

func (m *MockDeliveryLogRepository) FindChain(ctx context.Context, id string) ([]entity.DeliveryLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).([]entity.DeliveryLogEntry), args.Error(1)
	}

	var chain []entity.DeliveryLogEntry
	current := id
	for current != "" {
		e, ok := m.Entries[current]
		if !ok {
			break
		}
		chain = append(chain, *e)
		current = e.RetryOfID
	}
	return chain, args.Error(1)
}

type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishDelivery(ctx context.Context, job queue.DeliveryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockQueueProducer) PublishDeliveryIn(ctx context.Context, job queue.DeliveryJob, delay time.Duration) error {
	args := m.Called(ctx, job, delay)
	return args.Error(0)
}

type MockSnapshotProvider struct {
	mock.Mock
}

func (m *MockSnapshotProvider) FetchSnapshot(ctx context.Context, model string, recordID int64) (entity.RecordSnapshot, error) {
	args := m.Called(ctx, model, recordID)
	if snap := args.Get(0); snap != nil {
		return snap.(entity.RecordSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnapshotProvider) FetchEnvironment(ctx context.Context) (entity.RecordSnapshot, entity.RecordSnapshot, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(entity.RecordSnapshot)
	company, _ := args.Get(1).(entity.RecordSnapshot)
	return user, company, args.Error(2)
}

type MockHTTPSender struct {
	mock.Mock
}

func (m *MockHTTPSender) Do(ctx context.Context, spec *gateway.RequestSpec) (*gateway.Response, error) {
	args := m.Called(ctx, spec)
	if resp := args.Get(0); resp != nil {
		return resp.(*gateway.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) PostDeliveryNote(ctx context.Context, model string, recordID int64, summary string) error {
	args := m.Called(ctx, model, recordID, summary)
	return args.Error(0)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, gatewayID string) (bool, error) {
	args := m.Called(ctx, gatewayID)
	return args.Bool(0), args.Error(1)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) SendDeliveryFailure(gatewayName, phone, errDetail string) error {
	args := m.Called(gatewayName, phone, errDetail)
	return args.Error(0)
}
