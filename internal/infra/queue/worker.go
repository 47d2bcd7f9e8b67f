package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler é quem processa de fato a entrega (o usecase).
// O worker só cuida do consumo, ack/nack e decodificação do job.
type DeliveryHandler interface {
	HandleDelivery(ctx context.Context, logEntryID string, attempt int) error
}

type Worker struct {
	Channel *amqp.Channel
	Handler DeliveryHandler
}

func NewWorker(ch *amqp.Channel, handler DeliveryHandler) *Worker {
	return &Worker{
		Channel: ch,
		Handler: handler,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job DeliveryJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("❌ [WORKER] JSON Inválido: %s", err)
				// Mensagem podre (malformada). Rejeita sem requeue para não travar a fila.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] Entrega recebida: log=%s tentativa=%d", job.LogEntryID, job.Attempt)

			if err := w.Handler.HandleDelivery(context.Background(), job.LogEntryID, job.Attempt); err != nil {
				// Erro de infraestrutura (banco fora, etc). O desfecho de negócio
				// já fica registrado na entrada de log pelo handler; aqui só
				// mandamos para a DLQ para inspeção.
				log.Printf("❌ [WORKER] Erro ao processar entrega %s: %s", job.LogEntryID, err)
				d.Nack(false, false)
				continue
			}

			d.Ack(false)
		}
	}()

	log.Printf(" [*] Worker de entregas rodando na fila '%s'", queueName)
	<-forever
}
