package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/zap-relay/internal/infra/database"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/integration/erp"
	"github.com/xavierca1/zap-relay/internal/infra/mail"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
	"github.com/xavierca1/zap-relay/internal/infra/ratelimit"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

// Consumidor standalone da fila de entregas, para escalar separado da API.
func main() {
	godotenv.Load()

	db, err := database.NewConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("falha ao conectar no banco:", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal("falha ao conectar no RabbitMQ:", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()

	gatewayRepo := database.NewGatewayRepository(db)
	logRepo := database.NewDeliveryLogRepository(db)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	erpClient := erp.NewClient(os.Getenv("ERP_BASE_URL"), os.Getenv("ERP_API_KEY"))
	alertSender := mail.NewAlertSender(
		os.Getenv("MAIL_HOST"), 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		envOr("MAIL_FROM", "alerts@zap-relay.local"), os.Getenv("ALERT_MAIL_TO"),
	)

	deliveryTimeout := time.Duration(envInt("DELIVERY_TIMEOUT_SECONDS", 30)) * time.Second
	sender := gateway.NewSender(deliveryTimeout)

	retryController := usecase.NewRetryController(logRepo, producer, envInt("MAX_AUTO_RETRIES", 3))

	processUC := usecase.NewProcessDeliveryUseCase(logRepo, gatewayRepo, sender, retryController, producer, deliveryTimeout)
	processUC.Audit = erpClient
	processUC.Alerts = alertSender
	processUC.Limiter = ratelimit.NewRedisLimiter(redisClient, envInt64("GATEWAY_QPS_LIMIT", 10), time.Second)

	deliveryWorker := queue.NewWorker(rabbitMQ.Ch, processUC)
	deliveryWorker.Start(queue.QueueName)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
