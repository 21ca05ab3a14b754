// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"talent-escrow/cmd"
	"talent-escrow/internal/consumer"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/usecase"
	"talent-escrow/internal/wire"
	"talent-escrow/internal/worker"
	"talent-escrow/pkg/cache"
	"talent-escrow/pkg/database"
	"talent-escrow/pkg/mq"
	"talent-escrow/pkg/obs"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := newLogger(config.App)
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("env", config.App.Env),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := obs.InitTracer(config.App.Name, config.App.Env, config.Tracing.Endpoint)
	if err != nil {
		logger.Fatal("Failed to init tracer", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Schema
	if config.Database.AutoMigrate {
		if err := database.Migrate(database.MigrationURL(config.Database), logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	// Event publishing is optional; transitions never wait on it.
	var events usecase.EventPublisher = usecase.NopPublisher{}
	if config.RabbitMQ.URL != "" {
		publisher, err := mq.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect publisher", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
		logger.Info("RabbitMQ publisher ready", zap.String("exchange", config.RabbitMQ.Exchange))
	}

	// Sweeper lock
	var locker worker.Locker
	if config.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		locker = cache.NewLocker(client)
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	}

	app := wire.Wiring(repos, config, events, locker, logger)

	if config.Escrow.SweepEnabled {
		app.Sweeper.Start(ctx)
		defer app.Sweeper.Stop()
	}

	if config.RabbitMQ.URL != "" {
		source, err := mq.NewConsumer(config.RabbitMQ.URL, config.RabbitMQ.Exchange, consumer.VerificationQueue, consumer.Bindings)
		if err != nil {
			logger.Fatal("Failed to start verification consumer", zap.Error(err))
		}
		defer source.Close()

		verifications := consumer.NewVerificationConsumer(source, app.Service.Escrow, logger)
		go func() {
			if err := verifications.Run(ctx); err != nil {
				logger.Error("Verification consumer stopped", zap.Error(err))
			}
		}()
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}
}

// newLogger falls back to a stderr production logger when the log file cannot be opened.
func newLogger(cfg utils.AppConfig) *zap.Logger {
	logger, err := utils.InitLogger(cfg)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	return logger
}
