package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status de uma tentativa de entrega. Cada tentativa é uma entrada
// própria no log: uma retentativa nunca sobrescreve a anterior, ela
// cria uma entrada nova apontando para a antiga via RetryOfID.
type DeliveryStatus string

const (
	StatusQueued   DeliveryStatus = "queued"
	StatusSent     DeliveryStatus = "sent"
	StatusFailed   DeliveryStatus = "failed"
	StatusRetrying DeliveryStatus = "retrying"
)

// Entidade: DeliveryLogEntry (trilha de auditoria append-only)
type DeliveryLogEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Registro de origem (lead, partner...), opcional
	SourceModel    string `json:"source_model,omitempty"`
	SourceRecordID int64  `json:"source_record_id,omitempty"`

	GatewayID  string `json:"gateway_id"`
	TemplateID string `json:"template_id,omitempty"`

	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"` // sempre E.164

	// Payloads persistidos sempre redigidos (segredos mascarados)
	RequestPayload string `json:"request_payload"`
	ResponseCode   int    `json:"response_code,omitempty"`
	ResponseBody   string `json:"response_body,omitempty"`

	Status      DeliveryStatus `json:"status"`
	ErrorDetail string         `json:"error_detail,omitempty"`

	RetryCount int    `json:"retry_count"`
	RetryOfID  string `json:"retry_of_id,omitempty"`

	Archived bool `json:"archived"`
}

// Factory
func NewDeliveryLogEntry(gatewayID, phone, message string) *DeliveryLogEntry {
	return &DeliveryLogEntry{
		ID:          uuid.New().String(),
		GatewayID:   gatewayID,
		PhoneNumber: phone,
		Message:     message,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// NewRetryEntry cria a entrada da próxima tentativa da cadeia.
func (e *DeliveryLogEntry) NewRetryEntry() *DeliveryLogEntry {
	retry := NewDeliveryLogEntry(e.GatewayID, e.PhoneNumber, e.Message)
	retry.SourceModel = e.SourceModel
	retry.SourceRecordID = e.SourceRecordID
	retry.TemplateID = e.TemplateID
	retry.RequestPayload = e.RequestPayload
	retry.RetryCount = e.RetryCount + 1
	retry.RetryOfID = e.ID
	return retry
}

// Transições válidas: queued -> sent|failed, failed -> retrying.
// retrying, sent e os demais estados são finais para a entrada
// (a nova tentativa vive em outra entrada).
func (e *DeliveryLogEntry) CanTransition(to DeliveryStatus) bool {
	switch e.Status {
	case StatusQueued:
		return to == StatusSent || to == StatusFailed
	case StatusFailed:
		return to == StatusRetrying
	default:
		return false
	}
}

// Transition aplica a mudança de status respeitando a máquina de estados.
func (e *DeliveryLogEntry) Transition(to DeliveryStatus) error {
	if !e.CanTransition(to) {
		return fmt.Errorf("invalid delivery status transition: %s -> %s", e.Status, to)
	}
	e.Status = to
	e.UpdatedAt = time.Now()
	return nil
}

// IsTerminal informa se a entrada já recebeu seu desfecho.
func (e *DeliveryLogEntry) IsTerminal() bool {
	return e.Status == StatusSent || e.Status == StatusFailed || e.Status == StatusRetrying
}
