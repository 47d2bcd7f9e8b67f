package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

type GatewayRepositoryInterface interface {
	Create(ctx context.Context, gw *entity.Gateway) error
	FindByID(ctx context.Context, id string) (*entity.Gateway, error)
	List(ctx context.Context) ([]entity.Gateway, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, tpl *entity.Template) error
	FindByID(ctx context.Context, id string) (*entity.Template, error)
	List(ctx context.Context) ([]entity.Template, error)
	UpdatePreview(ctx context.Context, id, preview string) error
}

type DeliveryLogFilter struct {
	Status    entity.DeliveryStatus
	GatewayID string
	Phone     string
	Limit     int
	Offset    int
}

type DeliveryLogRepositoryInterface interface {
	Create(ctx context.Context, e *entity.DeliveryLogEntry) error
	FindByID(ctx context.Context, id string) (*entity.DeliveryLogEntry, error)
	Update(ctx context.Context, e *entity.DeliveryLogEntry) error
	List(ctx context.Context, filter DeliveryLogFilter) ([]entity.DeliveryLogEntry, error)
	// FindChain volta a cadeia de retentativas a partir da entrada dada,
	// da mais recente até a original (retry_count = 0).
	FindChain(ctx context.Context, id string) ([]entity.DeliveryLogEntry, error)
}

type QueueProducerInterface interface {
	PublishDelivery(ctx context.Context, job queue.DeliveryJob) error
	PublishDeliveryIn(ctx context.Context, job queue.DeliveryJob, delay time.Duration) error
}

// SnapshotProvider é o colaborador que materializa registros do ERP
// em snapshots planos para o renderer.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, model string, recordID int64) (entity.RecordSnapshot, error)
	FetchEnvironment(ctx context.Context) (user, company entity.RecordSnapshot, err error)
}

// AuditSink recebe o resumo de cada desfecho para postar no chatter do
// registro de origem. Best-effort: falha aqui nunca aborta entrega.
type AuditSink interface {
	PostDeliveryNote(ctx context.Context, model string, recordID int64, summary string) error
}

// AlertService avisa o operador quando uma entrega morre de vez.
type AlertService interface {
	SendDeliveryFailure(gatewayName, phone, errDetail string) error
}

// RateLimiter controla o teto de envios por gateway.
type RateLimiter interface {
	Allow(ctx context.Context, gatewayID string) (bool, error)
}

// HTTPSender executa a request montada pelos builders.
type HTTPSender interface {
	Do(ctx context.Context, spec *gateway.RequestSpec) (*gateway.Response, error)
}
