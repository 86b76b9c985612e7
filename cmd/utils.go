package cmd

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"ged-backend/internal/config"
	"ged-backend/internal/core"
	"ged-backend/internal/core/tokenizer/hftok"
	"ged-backend/internal/core/tokenizer/wordpiece"
	"ged-backend/internal/core/trainer"
	"ged-backend/internal/database"
	"ged-backend/internal/messaging"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	if err := godotenv.Load(configPath); err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// SetupLogFile tees the standard logger, and with it slog's default handler,
// into dir/<name>. The returned file must be closed by the caller.
func SetupLogFile(dir, name string) *os.File {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	return f
}

func NewTokenizerLoader() core.TokenizerLoader {
	return func(tokenizerType core.TokenizerType, source string) (core.Tokenizer, error) {
		switch tokenizerType {
		case core.WordPieceTokenizer:
			tok, err := wordpiece.Load(source, wordpiece.DefaultOptions())
			if err != nil {
				return nil, err
			}
			return tok, nil
		default:
			tok, err := hftok.Load(source, 0)
			if err != nil {
				return nil, err
			}
			return tok, nil
		}
	}
}

func NewTrainerLoader(cfg config.TrainerConfig) core.TrainerLoader {
	return func(ctx context.Context) (core.Trainer, error) {
		t, err := trainer.LoadPluginTrainer(trainer.PluginConfig{
			Executable: cfg.TrainerExecutable,
			Args:       cfg.TrainerArgs,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// LoadDetector returns nil when no detector model is configured.
func LoadDetector(cfg config.ModelConfig, tokenizer core.Tokenizer) *core.OnnxDetector {
	if cfg.DetectorModel == "" {
		slog.Info("no detector model configured, prediction endpoint disabled")
		return nil
	}

	if err := core.InitOnnxRuntime(cfg.OnnxRuntimeDylib); err != nil {
		log.Fatalf("could not init ONNX Runtime: %v", err)
	}

	detector, err := core.LoadOnnxDetector(cfg.DetectorModel, tokenizer, cfg.MaxLen)
	if err != nil {
		log.Fatalf("could not load detector model: %v", err)
	}
	slog.Info("detector model loaded", "path", cfg.DetectorModel)
	return detector
}

// RequeueRuns publishes every run still marked as queued, so runs accepted
// before a restart of an in-memory queue are not lost.
func RequeueRuns(ctx context.Context, db *gorm.DB, publisher messaging.Publisher) {
	var runs []database.TrainingRun
	if err := db.WithContext(ctx).Where("status = ?", database.JobQueued).Find(&runs).Error; err != nil {
		log.Fatalf("failed to fetch queued runs from database: %v", err)
	}

	for _, run := range runs {
		if err := publisher.PublishTrainTask(ctx, messaging.TrainTaskPayload{RunId: run.Id}); err != nil {
			log.Fatalf("failed to publish train task: %v", err)
		}
	}

	if len(runs) > 0 {
		slog.Info("requeued training runs", "count", len(runs))
	}
}
