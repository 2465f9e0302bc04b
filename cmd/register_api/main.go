package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tienda-register-ledger/internal/api_gateway"
	"github.com/tienda-register-ledger/internal/api_gateway/service"
	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/data/mongo"
	"github.com/tienda-register-ledger/internal/data/postgres"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/logger"
	"github.com/tienda-register-ledger/internal/platform/messaging/producers"
	"github.com/tienda-register-ledger/internal/platform/metrics"
	"github.com/tienda-register-ledger/internal/platform/persistence"
	"github.com/tienda-register-ledger/internal/register"
	"github.com/tienda-register-ledger/internal/register/outbox_poller"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("register_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)
	log.Info("Starting Register API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config", cmp.Or(cfg.Source, "environment"),
	)

	mlcRate, usdRate, err := cfg.Register.Rates()
	if err != nil {
		log.Error("Invalid exchange rates", "error", err)
		os.Exit(1)
	}
	location, err := cfg.Register.Location()
	if err != nil {
		log.Error("Invalid register time zone", "time_zone", cfg.Register.TimeZone, "error", err)
		os.Exit(1)
	}

	// Initialize databases with app context; NewPostgresDB also applies migrations
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Kafka producer for committed ledger entries
	ledgerProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger event producer", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Initialize repositories
	registerRepo := postgres.NewRegisterRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())

	// Register service over the reducer engine
	eng := engine.New(engine.Settings{
		MLCRate:  mlcRate,
		USDRate:  usdRate,
		Location: location,
		Operator: cfg.Register.Operator,
	})
	registerService := register.NewService(eng, postgresDB, registerRepo, outboxRepo, m, logger.Component(log, "register"))
	if err := registerService.Load(appCtx); err != nil {
		log.Error("Failed to load register state", "error", err)
		os.Exit(1)
	}

	// Outbox poller relays committed entries to Kafka
	ledgerPublisher := outbox_poller.NewLedgerPublisher(outboxRepo, ledgerProducer, logger.Component(log, "outbox"))
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, ledgerPublisher, m, logger.Component(log, "outbox"))

	archiveService := service.NewArchiveQueryService(log, archiveRepo)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, registerService, archiveService, m)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence: stop accepting commands, then drain the poller
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	cancelAppCtx()
	wg.Wait()

	if err = ledgerProducer.Close(); err != nil {
		log.Error("Error closing ledger event producer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("Register API shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Register API shutdown completed")
}
