package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ged-backend/cmd"
	"ged-backend/internal/api"
	"ged-backend/internal/config"
	"ged-backend/internal/core"
	"ged-backend/internal/database"
	"ged-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	config.StorageConfig
	config.TrainerConfig
	config.ModelConfig

	DatabaseURL string `env:"DATABASE_URL" envDefault:"ged-data/ged.db"`
	// An in-process queue and worker are used when no broker is configured.
	RabbitMQURL string `env:"RABBITMQ_URL"`
	APIPort     string `env:"API_PORT" envDefault:"8001"`
	LogDir      string `env:"LOG_DIR" envDefault:"ged-data/logs"`
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := env.ParseAs[APIConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	logFile := cmd.SetupLogFile(cfg.LogDir, "api.log")
	defer logFile.Close()

	slog.Info("starting api server")

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	ctx := context.Background()

	storage, err := cfg.StorageConfig.NewProvider(ctx)
	if err != nil {
		log.Fatalf("failed to create storage provider: %v", err)
	}

	newTokenizer := cmd.NewTokenizerLoader()
	tokCfg := cfg.ModelConfig.Tokenizer()
	tokenizer, err := newTokenizer(tokCfg.Type, tokCfg.Source)
	if err != nil {
		log.Fatalf("failed to load tokenizer: %v", err)
	}
	defer tokenizer.Close()

	var detector api.Detector
	if d := cmd.LoadDetector(cfg.ModelConfig, tokenizer); d != nil {
		defer d.Release()
		detector = d
	}

	var publisher messaging.Publisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		queue := messaging.NewInMemoryQueue()
		defer queue.Close()
		publisher = queue

		worker := core.NewTaskProcessor(
			db, storage, queue, cfg.ModelDir, cfg.ModelBucket,
			cmd.NewTrainerLoader(cfg.TrainerConfig), newTokenizer,
		)
		go worker.Start()
		defer worker.Stop()

		cmd.RequeueRuns(ctx, db, queue)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	service := api.NewBackendService(db, publisher, tokenizer, detector, cfg.MaxLen)

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("server forced to shutdown: %v", err)
		}
	}()

	slog.Info("api server listening", "port", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("could not listen on %s: %v", cfg.APIPort, err)
	}

	slog.Info("server stopped")
}
