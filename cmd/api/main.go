package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/zap-relay/internal/infra/database"
	"github.com/xavierca1/zap-relay/internal/infra/gateway"
	"github.com/xavierca1/zap-relay/internal/infra/http/handlers"
	"github.com/xavierca1/zap-relay/internal/infra/http/middleware"
	"github.com/xavierca1/zap-relay/internal/infra/integration/erp"
	"github.com/xavierca1/zap-relay/internal/infra/mail"
	"github.com/xavierca1/zap-relay/internal/infra/queue"
	"github.com/xavierca1/zap-relay/internal/infra/ratelimit"
	"github.com/xavierca1/zap-relay/internal/infra/worker"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()

	// 1. Repositórios
	gatewayRepo := database.NewGatewayRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	logRepo := database.NewDeliveryLogRepository(db)

	// 2. Colaboradores externos
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	erpClient := erp.NewClient(os.Getenv("ERP_BASE_URL"), os.Getenv("ERP_API_KEY"))
	alertSender := mail.NewAlertSender(
		os.Getenv("MAIL_HOST"), 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		envOr("MAIL_FROM", "alerts@zap-relay.local"), os.Getenv("ALERT_MAIL_TO"),
	)
	limiter := ratelimit.NewRedisLimiter(redisClient, envInt64("GATEWAY_QPS_LIMIT", 10), time.Second)

	// 3. UseCases
	sendUC := usecase.NewSendMessageUseCase(
		gatewayRepo, templateRepo, logRepo, producer, erpClient,
		os.Getenv("DEFAULT_COUNTRY_CODE"),
	)
	previewUC := usecase.NewPreviewTemplateUseCase(templateRepo, erpClient)
	retryController := usecase.NewRetryController(logRepo, producer, envInt("MAX_AUTO_RETRIES", 3))

	// 4. Worker de entregas (consome a fila e chama o provedor)
	deliveryTimeout := time.Duration(envInt("DELIVERY_TIMEOUT_SECONDS", 30)) * time.Second
	sender := gateway.NewSender(deliveryTimeout)

	processUC := usecase.NewProcessDeliveryUseCase(logRepo, gatewayRepo, sender, retryController, producer, deliveryTimeout)
	processUC.Audit = erpClient
	processUC.Alerts = alertSender
	processUC.Limiter = limiter

	deliveryWorker := queue.NewWorker(rabbitMQ.Ch, processUC)
	go deliveryWorker.Start(queue.QueueName)

	// 5. Worker de retenção (arquiva logs antigos, nunca apaga)
	retention := worker.NewRetentionWorker(logRepo, envInt("LOG_RETENTION_DAYS", 90))
	go retention.Start(context.Background())

	// 6. Handlers
	messageHandler := handlers.NewMessageHandler(sendUC)
	gatewayHandler := handlers.NewGatewayHandler(gatewayRepo, logRepo)
	templateHandler := handlers.NewTemplateHandler(templateRepo, previewUC)
	logHandler := handlers.NewLogHandler(logRepo, retryController)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, redisClient)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/messages", messageHandler.HandleSend)

	r.Post("/gateways", gatewayHandler.HandleCreate)
	r.Get("/gateways", gatewayHandler.HandleList)
	r.Get("/gateways/{id}/logs", gatewayHandler.HandleLogs)
	r.Post("/gateways/{id}/activate", gatewayHandler.HandleActivate)
	r.Post("/gateways/{id}/deactivate", gatewayHandler.HandleDeactivate)

	r.Post("/templates", templateHandler.HandleCreate)
	r.Get("/templates", templateHandler.HandleList)
	r.Post("/templates/{id}/preview", templateHandler.HandlePreview)

	r.Get("/logs", logHandler.HandleList)
	r.Get("/logs/{id}", logHandler.HandleGet)
	r.Post("/logs/{id}/retry", logHandler.HandleRetry)
	r.Post("/logs/{id}/cancel", logHandler.HandleCancel)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 Zap Relay rodando na porta %s", port)
	http.ListenAndServe(port, r)
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
