package entity

import (
	"errors"
	"fmt"
)

var ErrGatewayNameTaken = errors.New("já existe um gateway com esse nome")

// TemplateRenderError: placeholder que não resolve contra os snapshots.
// Falha dura — melhor abortar o envio do que entregar mensagem degradada.
type TemplateRenderError struct {
	Placeholder string
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("template placeholder could not be resolved: ${%s}", e.Placeholder)
}

// InvalidPhoneNumberError: número que não normaliza para E.164.
type InvalidPhoneNumberError struct {
	Phone string
}

func (e *InvalidPhoneNumberError) Error() string {
	return fmt.Sprintf("phone number %q cannot be normalized to international format", e.Phone)
}

type GatewayNotFoundError struct {
	GatewayID string
}

func (e *GatewayNotFoundError) Error() string {
	return fmt.Sprintf("gateway %s not found", e.GatewayID)
}

type GatewayInactiveError struct {
	GatewayID string
}

func (e *GatewayInactiveError) Error() string {
	return fmt.Sprintf("gateway %s is not active", e.GatewayID)
}

type TemplateNotFoundError struct {
	TemplateID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %s not found", e.TemplateID)
}

type SourceRecordNotFoundError struct {
	Model    string
	RecordID int64
}

func (e *SourceRecordNotFoundError) Error() string {
	return fmt.Sprintf("source record %s/%d not found", e.Model, e.RecordID)
}

// EnqueueError: a fila recusou o job. A entrada de log correspondente
// já foi marcada como failed quando esse erro chega ao caller.
type EnqueueError struct {
	LogEntryID string
	Cause      error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("failed to enqueue delivery %s: %v", e.LogEntryID, e.Cause)
}

func (e *EnqueueError) Unwrap() error {
	return e.Cause
}
