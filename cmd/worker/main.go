package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ged-backend/cmd"
	"ged-backend/internal/config"
	"ged-backend/internal/core"
	"ged-backend/internal/database"
	"ged-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	config.StorageConfig
	config.TrainerConfig
	config.ModelConfig

	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`
	LogDir      string `env:"LOG_DIR" envDefault:"ged-data/logs"`
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := env.ParseAs[WorkerConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	logFile := cmd.SetupLogFile(cfg.LogDir, "worker.log")
	defer logFile.Close()

	slog.Info("starting worker")

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	storage, err := cfg.StorageConfig.NewProvider(context.Background())
	if err != nil {
		log.Fatalf("failed to create storage provider: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer receiver.Close()

	worker := core.NewTaskProcessor(
		db, storage, receiver, cfg.ModelDir, cfg.ModelBucket,
		cmd.NewTrainerLoader(cfg.TrainerConfig), cmd.NewTokenizerLoader(),
	)
	go worker.Start()

	slog.Info("worker started, waiting for tasks")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received")
	worker.Stop()
	slog.Info("worker stopped")
}
