package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/http/middleware"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
)

// ProcessDeliveryUseCase executa UMA tentativa de entrega: recarrega a
// entrada de log, remonta a request viva (a persistida está redigida),
// chama o provedor e grava o desfecho exatamente uma vez.
type ProcessDeliveryUseCase struct {
	Logs     DeliveryLogRepositoryInterface
	Gateways GatewayRepositoryInterface
	Sender   HTTPSender
	Retry    *RetryController

	Audit   AuditSink    // best-effort
	Alerts  AlertService // best-effort
	Limiter RateLimiter  // opcional

	Timeout time.Duration

	// RateLimitDelay é a espera fixa quando o teto local de QPS do
	// gateway segura o envio (não consome tentativa automática).
	RateLimitDelay time.Duration

	Queue QueueProducerInterface
}

func NewProcessDeliveryUseCase(
	logs DeliveryLogRepositoryInterface,
	gateways GatewayRepositoryInterface,
	sender HTTPSender,
	retry *RetryController,
	producer QueueProducerInterface,
	timeout time.Duration,
) *ProcessDeliveryUseCase {
	return &ProcessDeliveryUseCase{
		Logs:           logs,
		Gateways:       gateways,
		Sender:         sender,
		Retry:          retry,
		Queue:          producer,
		Timeout:        timeout,
		RateLimitDelay: 5 * time.Second,
	}
}

// HandleDelivery implementa queue.DeliveryHandler. Erro devolvido aqui é
// só infraestrutura (banco fora) — desfecho de negócio fica na entrada.
func (uc *ProcessDeliveryUseCase) HandleDelivery(ctx context.Context, logEntryID string, attempt int) error {
	entry, err := uc.Logs.FindByID(ctx, logEntryID)
	if err != nil {
		return err
	}
	if entry == nil {
		log.Printf("⚠️ [DELIVERY] Entrada %s não existe mais, ignorando", logEntryID)
		return nil
	}

	// Só processa queued. Cobre cancelamento e redelivery da fila:
	// uma entrada que já tem desfecho nunca é executada de novo.
	if entry.Status != entity.StatusQueued {
		log.Printf("⚠️ [DELIVERY] Entrada %s já está %s, ignorando", entry.ID, entry.Status)
		return nil
	}

	gw, err := uc.Gateways.FindByID(ctx, entry.GatewayID)
	if err != nil {
		return err
	}
	if gw == nil {
		return uc.recordFailure(ctx, entry, 0, "", "gateway no longer exists", attempt, ClassTerminal, nil)
	}
	if !gw.Active {
		return uc.recordFailure(ctx, entry, 0, "", "gateway is not active", attempt, ClassTerminal, gw)
	}

	// Teto local de QPS: sobre o limite, devolve para a fila de espera
	// sem gastar tentativa — não é falha do provedor.
	if uc.Limiter != nil {
		allowed, limErr := uc.Limiter.Allow(ctx, gw.ID)
		if limErr != nil {
			log.Printf("⚠️ [DELIVERY] Rate limiter indisponível (%v), seguindo sem limite", limErr)
		} else if !allowed {
			log.Printf("⏳ [DELIVERY] Gateway %s no limite de QPS, reagendando entrega %s", gw.Name, entry.ID)
			middleware.RecordRateLimitHit(gw.Name)
			return uc.Queue.PublishDeliveryIn(ctx, queue.DeliveryJob{LogEntryID: entry.ID, Attempt: attempt}, uc.RateLimitDelay)
		}
	}

	spec, err := gateway.BuildRequest(gw, entry.Message, entry.PhoneNumber)
	if err != nil {
		return uc.recordFailure(ctx, entry, 0, "", fmt.Sprintf("request build failed: %v", err), attempt, ClassTerminal, gw)
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.Timeout)
	defer cancel()

	resp, callErr := uc.Sender.Do(callCtx, spec)

	statusCode := 0
	respBody := ""
	if resp != nil {
		statusCode = resp.StatusCode
		respBody = string(resp.Body)
	}

	switch c := Classify(statusCode, callErr); c {
	case ClassSuccess:
		if err := entry.Transition(entity.StatusSent); err != nil {
			return err
		}
		entry.ResponseCode = statusCode
		entry.ResponseBody = respBody
		if err := uc.Logs.Update(ctx, entry); err != nil {
			return err
		}

		log.Printf("✅ [DELIVERY] Mensagem enviada para %s via %s", entry.PhoneNumber, gw.Name)
		middleware.RecordDelivery(string(gw.Variant), string(entity.StatusSent))
		uc.notifyAudit(ctx, entry, fmt.Sprintf("WhatsApp message sent to %s via %s", entry.PhoneNumber, gw.Name))
		return nil

	default:
		detail := respBody
		if callErr != nil {
			detail = callErr.Error()
		}
		return uc.recordFailure(ctx, entry, statusCode, respBody, detail, attempt, c, gw)
	}
}

func (uc *ProcessDeliveryUseCase) recordFailure(
	ctx context.Context,
	entry *entity.DeliveryLogEntry,
	statusCode int,
	respBody, detail string,
	attempt int,
	class Classification,
	gw *entity.Gateway,
) error {
	if err := entry.Transition(entity.StatusFailed); err != nil {
		return err
	}
	entry.ResponseCode = statusCode
	entry.ResponseBody = respBody
	entry.ErrorDetail = detail
	if err := uc.Logs.Update(ctx, entry); err != nil {
		return err
	}

	gatewayName := entry.GatewayID
	variant := ""
	if gw != nil {
		gatewayName = gw.Name
		variant = string(gw.Variant)
	}
	middleware.RecordDelivery(variant, string(entity.StatusFailed))

	if class == ClassTransient {
		retryID, err := uc.Retry.ScheduleAutoRetry(ctx, entry, attempt)
		if err != nil {
			log.Printf("❌ [DELIVERY] Falha ao agendar retry da entrega %s: %v", entry.ID, err)
		}
		if retryID != "" {
			log.Printf("🔁 [DELIVERY] Entrega %s falhou (%s), retry agendado: %s", entry.ID, detail, retryID)
			middleware.RecordRetryScheduled()
			uc.notifyAudit(ctx, entry, fmt.Sprintf("WhatsApp delivery to %s failed, retry scheduled: %s", entry.PhoneNumber, detail))
			return nil
		}
		log.Printf("❌ [DELIVERY] Entrega %s esgotou as tentativas automáticas", entry.ID)
	} else {
		log.Printf("❌ [DELIVERY] Entrega %s falhou em definitivo: %s", entry.ID, detail)
	}

	// Falha definitiva (ou teto de retries): avisa operador e chatter
	if uc.Alerts != nil {
		if err := uc.Alerts.SendDeliveryFailure(gatewayName, entry.PhoneNumber, detail); err != nil {
			log.Printf("⚠️ [DELIVERY] Falha ao enviar alerta por email: %v", err)
		}
	}
	uc.notifyAudit(ctx, entry, fmt.Sprintf("WhatsApp delivery to %s failed: %s", entry.PhoneNumber, detail))

	return nil
}

func (uc *ProcessDeliveryUseCase) notifyAudit(ctx context.Context, entry *entity.DeliveryLogEntry, summary string) {
	if uc.Audit == nil || entry.SourceModel == "" || entry.SourceRecordID == 0 {
		return
	}
	if err := uc.Audit.PostDeliveryNote(ctx, entry.SourceModel, entry.SourceRecordID, summary); err != nil {
		log.Printf("⚠️ [DELIVERY] Falha ao postar no chatter (%s/%d): %v", entry.SourceModel, entry.SourceRecordID, err)
	}
}
