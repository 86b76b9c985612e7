package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ged-backend/cmd"
	"ged-backend/internal/config"
	"ged-backend/internal/core"
	"ged-backend/internal/core/dataset"

	"github.com/caarlos0/env/v11"
)

type TrainConfig struct {
	config.StorageConfig
	config.TrainerConfig
	config.ModelConfig

	Bucket    string `env:"DATA_BUCKET" envDefault:"data"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"ged-data/output"`
	Limit     int    `env:"LIMIT" envDefault:"1000"`
	Mismatch  string `env:"MISMATCH_POLICY" envDefault:"truncate"`
	Workers   int    `env:"WORKERS" envDefault:"4"`
	ExportDir string `env:"EXPORT_DIR"`
}

func main() {
	epochs := flag.Int("epochs", 0, "number of training epochs, the default is used when 0")
	modelName := flag.String("model", core.DefaultModelName, "pretrained model to fine tune")
	sentence := flag.String("sentence", "यह एक गलत वाक्य है।", "sentence to run through the trained model")

	cmd.LoadEnvFile()

	cfg, err := env.ParseAs[TrainConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	mismatch, err := dataset.ParseMismatchPolicy(cfg.Mismatch)
	if err != nil {
		log.Fatalf("invalid MISMATCH_POLICY: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := cfg.StorageConfig.NewProvider(ctx)
	if err != nil {
		log.Fatalf("failed to create storage provider: %v", err)
	}

	pipelineCfg := core.DefaultPipelineConfig(cfg.OutputDir)
	pipelineCfg.Bucket = cfg.Bucket
	pipelineCfg.Tokenizer = cfg.ModelConfig.Tokenizer()
	pipelineCfg.MaxLen = cfg.MaxLen
	pipelineCfg.Limit = cfg.Limit
	pipelineCfg.Mismatch = mismatch
	pipelineCfg.Workers = cfg.Workers
	pipelineCfg.ExportDir = cfg.ExportDir
	pipelineCfg.ModelBucket = cfg.ModelBucket
	pipelineCfg.Args.ModelName = *modelName
	if *epochs > 0 {
		pipelineCfg.Args.NumTrainEpochs = *epochs
	}

	tokenizer, err := cmd.NewTokenizerLoader()(pipelineCfg.Tokenizer.Type, pipelineCfg.Tokenizer.Source)
	if err != nil {
		log.Fatalf("failed to load tokenizer: %v", err)
	}
	defer tokenizer.Close()

	trainer, err := cmd.NewTrainerLoader(cfg.TrainerConfig)(ctx)
	if err != nil {
		log.Fatalf("failed to load trainer: %v", err)
	}
	defer trainer.Release()

	pipeline := core.Pipeline{Storage: storage, Tokenizer: tokenizer, Trainer: trainer}

	result, err := pipeline.Run(ctx, pipelineCfg)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	slog.Info("validation scores", "scores", result.Validation.String())
	slog.Info("test scores", "scores", result.Test.String())
	slog.Info("model saved", "dir", result.ModelDir)

	statuses, err := core.PredictSentence(ctx, trainer, tokenizer, *sentence, pipelineCfg.MaxLen)
	if err != nil {
		log.Fatalf("sample prediction failed: %v", err)
	}
	for _, s := range statuses {
		slog.Info("sample prediction", "word", s.Word, "incorrect", s.Incorrect)
	}
}
