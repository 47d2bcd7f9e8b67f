package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

// Classificação de desfecho de uma tentativa de entrega.
type Classification int

const (
	ClassSuccess Classification = iota
	ClassTransient
	ClassTerminal
)

// Classify decide se o desfecho merece retentativa automática.
// Timeout, erro de rede, 5xx, 408 e 429 são transientes; erro de
// autenticação e o resto dos 4xx são definitivos — só retry manual.
func Classify(statusCode int, err error) Classification {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ClassTransient
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
			return ClassTransient
		}
		// Qualquer erro de transporte (conexão recusada, DNS...) é transiente
		return ClassTransient
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return ClassSuccess
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusRequestTimeout:
		return ClassTransient
	case statusCode >= 500:
		return ClassTransient
	default:
		return ClassTerminal
	}
}

type BackoffConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		BaseDelay: 30 * time.Second,
		MaxDelay:  30 * time.Minute,
	}
}

// NextDelay calcula o backoff exponencial com full jitter para a
// próxima tentativa automática. attempt é 0-based (0 => BaseDelay).
func (c BackoffConfig) NextDelay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := c.BaseDelay
	for i := 0; i < attempt && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return time.Duration(rng.Int63n(int64(delay) + 1))
}

// RetryController decide e agenda retentativas. Cada retry é uma entrada
// NOVA no log, encadeada na anterior — o histórico completo fica de pé.
type RetryController struct {
	Logs       DeliveryLogRepositoryInterface
	Queue      QueueProducerInterface
	Backoff    BackoffConfig
	MaxRetries int

	Rng *rand.Rand
}

func NewRetryController(logs DeliveryLogRepositoryInterface, producer QueueProducerInterface, maxRetries int) *RetryController {
	return &RetryController{
		Logs:       logs,
		Queue:      producer,
		Backoff:    DefaultBackoff(),
		MaxRetries: maxRetries,
		Rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ScheduleAutoRetry encadeia a próxima tentativa automática de uma entrada
// que acabou de falhar de forma transiente. attempt é o contador do job
// atual; devolve o ID da entrada nova ou "" se o teto já foi atingido.
func (rc *RetryController) ScheduleAutoRetry(ctx context.Context, failed *entity.DeliveryLogEntry, attempt int) (string, error) {
	if attempt >= rc.MaxRetries {
		return "", nil
	}

	retry, err := rc.chainRetry(ctx, failed)
	if err != nil {
		return "", err
	}

	delay := rc.Backoff.NextDelay(attempt, rc.Rng)
	job := queue.DeliveryJob{LogEntryID: retry.ID, Attempt: attempt + 1}
	if err := rc.Queue.PublishDeliveryIn(ctx, job, delay); err != nil {
		retry.Status = entity.StatusFailed
		retry.ErrorDetail = fmt.Sprintf("enqueue failed: %v", err)
		_ = rc.Logs.Update(ctx, retry)
		return retry.ID, &entity.EnqueueError{LogEntryID: retry.ID, Cause: err}
	}

	return retry.ID, nil
}

// ManualRetry é o retry disparado pelo operador. Sempre permitido para
// entrada failed — inclusive nos erros definitivos — e zera o backoff
// da cadeia (tentativa publicada na hora, contador automático do zero).
func (rc *RetryController) ManualRetry(ctx context.Context, logEntryID string) (string, error) {
	failed, err := rc.Logs.FindByID(ctx, logEntryID)
	if err != nil {
		return "", err
	}
	if failed == nil {
		return "", fmt.Errorf("delivery log entry %s not found", logEntryID)
	}
	if failed.Status != entity.StatusFailed {
		return "", fmt.Errorf("only failed deliveries can be retried (entry %s is %s)", failed.ID, failed.Status)
	}

	retry, err := rc.chainRetry(ctx, failed)
	if err != nil {
		return "", err
	}

	job := queue.DeliveryJob{LogEntryID: retry.ID, Attempt: 0}
	if err := rc.Queue.PublishDelivery(ctx, job); err != nil {
		retry.Status = entity.StatusFailed
		retry.ErrorDetail = fmt.Sprintf("enqueue failed: %v", err)
		_ = rc.Logs.Update(ctx, retry)
		return retry.ID, &entity.EnqueueError{LogEntryID: retry.ID, Cause: err}
	}

	return retry.ID, nil
}

// Cancel marca uma entrada ainda queued como failed antes do worker pegar.
// Best-effort: se o worker já começou a chamada HTTP, ela pode completar.
func (rc *RetryController) Cancel(ctx context.Context, logEntryID string) error {
	entry, err := rc.Logs.FindByID(ctx, logEntryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("delivery log entry %s not found", logEntryID)
	}
	if entry.Status != entity.StatusQueued {
		return fmt.Errorf("only queued deliveries can be canceled (entry %s is %s)", entry.ID, entry.Status)
	}

	if err := entry.Transition(entity.StatusFailed); err != nil {
		return err
	}
	entry.ErrorDetail = "canceled before dispatch"
	return rc.Logs.Update(ctx, entry)
}

func (rc *RetryController) chainRetry(ctx context.Context, failed *entity.DeliveryLogEntry) (*entity.DeliveryLogEntry, error) {
	if err := failed.Transition(entity.StatusRetrying); err != nil {
		return nil, err
	}
	if err := rc.Logs.Update(ctx, failed); err != nil {
		return nil, err
	}

	retry := failed.NewRetryEntry()
	if err := rc.Logs.Create(ctx, retry); err != nil {
		return nil, err
	}
	return retry, nil
}
