package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryJob é o payload que circula na fila. Só carrega a identidade
// da entrada de log (chave de correlação) e o contador de tentativa
// automática — o worker recarrega tudo do banco na hora de executar.
type DeliveryJob struct {
	LogEntryID string `json:"log_entry_id"`
	Attempt    int    `json:"attempt"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

// PublishDelivery enfileira o job para execução imediata.
func (p *RabbitMQProducer) PublishDelivery(ctx context.Context, job DeliveryJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco (segurança!)
		},
	)

	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}

// PublishDeliveryIn agenda o job para daqui a `delay`, publicando na fila
// de retry com TTL por mensagem. Quando o TTL vence, o RabbitMQ devolve a
// mensagem para a fila principal via dead-letter.
func (p *RabbitMQProducer) PublishDeliveryIn(ctx context.Context, job DeliveryJob, delay time.Duration) error {
	if delay <= 0 {
		return p.PublishDelivery(ctx, job)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		"",         // exchange default
		RetryQueue, // direto na fila de espera
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		},
	)

	if err != nil {
		return fmt.Errorf("falha ao agendar retry no RabbitMQ: %w", err)
	}

	return nil
}
