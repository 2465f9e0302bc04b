package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/data/mongo"
	"github.com/tienda-register-ledger/internal/logger"
	"github.com/tienda-register-ledger/internal/platform/messaging/consumers"
	"github.com/tienda-register-ledger/internal/platform/messaging/producers"
	"github.com/tienda-register-ledger/internal/platform/metrics"
	"github.com/tienda-register-ledger/internal/platform/persistence"
	"github.com/tienda-register-ledger/internal/projector/consumer"
	"github.com/tienda-register-ledger/internal/projector/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_projector")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Projector",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config", cmp.Or(cfg.Source, "environment"),
	)

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongoDB.EnsureIndexes(appCtx, mongo.ArchiveCollectionName, mongo.ArchiveIndexes()...); err != nil {
		log.Error("Failed to create archive indexes", "error", err)
		os.Exit(1)
	}

	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())
	m := metrics.New()

	// Initialize Kafka DLQ producer; nil when KAFKA_DLQ_TOPIC is empty
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	// Archive behind a bounded worker pool
	archiveService := service.NewArchiveService(archiveRepo, m, logger.Component(log, "archive"))
	poolService, err := service.NewWorkerPoolArchiveService(
		archiveService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	ledgerEventHandler := consumer.NewLedgerEventHandler(log, poolService, deadLetters)
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.LedgerTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.LedgerTopic, cfg.Kafka.ConsumerGroup, ledgerEventHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint for the projector process
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MetricsPath, m.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		log.Info("Serving metrics", "port", cfg.Server.Port, "path", cfg.Server.MetricsPath)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context so the consumer stops fetching
	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	poolService.Shutdown()

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping metrics server", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Ledger Projector shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Ledger Projector shutdown completed")
}
