package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ged-backend/internal/core/align"
	"ged-backend/internal/core/dataset"
	"ged-backend/internal/core/metrics"
	"ged-backend/internal/storage"
)

const DefaultMaxLen = 128

type SplitFiles struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type TokenizerConfig struct {
	Type   TokenizerType `json:"type"`
	Source string        `json:"source"`
}

type PipelineConfig struct {
	Bucket     string     `json:"bucket"`
	Train      SplitFiles `json:"train"`
	Validation SplitFiles `json:"validation"`
	Test       SplitFiles `json:"test"`

	Tokenizer TokenizerConfig `json:"tokenizer"`

	MaxLen   int                    `json:"max_len"`
	Limit    int                    `json:"limit"`
	Mismatch dataset.MismatchPolicy `json:"mismatch"`
	Workers  int                    `json:"workers"`

	Args TrainingArgs `json:"args"`

	// Optional. Aligned examples are written here as <split>.parquet.
	ExportDir string `json:"export_dir,omitempty"`
	// Optional. The output dir is uploaded to this bucket when set.
	ModelBucket string `json:"model_bucket,omitempty"`
	ModelPrefix string `json:"model_prefix,omitempty"`
}

func DefaultPipelineConfig(outputDir string) PipelineConfig {
	return PipelineConfig{
		Train:      SplitFiles{Source: "train.src", Target: "train.tgt"},
		Validation: SplitFiles{Source: "valid.src", Target: "valid.tgt"},
		Test:       SplitFiles{Source: "test.src", Target: "test.tgt"},
		Tokenizer:  TokenizerConfig{Type: HFTokenizer, Source: DefaultModelName},
		MaxLen:     DefaultMaxLen,
		Limit:      dataset.DefaultLimit,
		Mismatch:   dataset.MismatchTruncate,
		Workers:    4,
		Args:       DefaultTrainingArgs(outputDir),
	}
}

type PipelineResult struct {
	Validation metrics.Scores
	Test       metrics.Scores
	ModelDir   string
}

type Pipeline struct {
	Storage   storage.Provider
	Tokenizer Tokenizer
	Trainer   Trainer
}

func (p *Pipeline) loadSplit(ctx context.Context, cfg PipelineConfig, name string, files SplitFiles) ([]align.Example, error) {
	start := time.Now()

	pairs, err := dataset.ReadPairs(ctx, p.Storage, cfg.Bucket, files.Source, files.Target, dataset.ReadOptions{Limit: cfg.Limit, Mismatch: cfg.Mismatch})
	if err != nil {
		return nil, fmt.Errorf("error reading %s split: %w", name, err)
	}

	ds, err := dataset.New(ctx, pairs, p.Tokenizer, cfg.MaxLen, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("error labelling %s split: %w", name, err)
	}

	examples, err := ds.All()
	if err != nil {
		return nil, fmt.Errorf("error aligning %s split: %w", name, err)
	}

	if cfg.ExportDir != "" {
		if err := os.MkdirAll(cfg.ExportDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("error creating export dir: %w", err)
		}
		if err := dataset.WriteParquet(filepath.Join(cfg.ExportDir, name+".parquet"), ds.Sentences, examples); err != nil {
			return nil, err
		}
	}

	slog.Info("loaded split", "split", name, "examples", len(examples), "duration", time.Since(start))
	return examples, nil
}

// Run loads the three splits, trains on train with validation as eval set,
// scores validation and test, then saves the model and tokenizer under
// Args.OutputDir. Any error aborts the run.
func (p *Pipeline) Run(ctx context.Context, cfg PipelineConfig) (PipelineResult, error) {
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultMaxLen
	}

	train, err := p.loadSplit(ctx, cfg, "train", cfg.Train)
	if err != nil {
		return PipelineResult{}, err
	}
	valid, err := p.loadSplit(ctx, cfg, "validation", cfg.Validation)
	if err != nil {
		return PipelineResult{}, err
	}
	test, err := p.loadSplit(ctx, cfg, "test", cfg.Test)
	if err != nil {
		return PipelineResult{}, err
	}

	slog.Info("starting training", "model", cfg.Args.ModelName, "train", len(train), "eval", len(valid), "epochs", cfg.Args.NumTrainEpochs)
	start := time.Now()
	if err := p.Trainer.Train(ctx, train, valid, cfg.Args); err != nil {
		return PipelineResult{}, fmt.Errorf("error training model: %w", err)
	}
	slog.Info("training completed", "duration", time.Since(start))

	var result PipelineResult

	result.Validation, err = Evaluate(ctx, p.Trainer, valid)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("error evaluating validation split: %w", err)
	}
	slog.Info("validation scores", "scores", result.Validation.String())

	result.Test, err = Evaluate(ctx, p.Trainer, test)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("error evaluating test split: %w", err)
	}
	slog.Info("test scores", "scores", result.Test.String())

	result.ModelDir = cfg.Args.OutputDir
	if err := p.Trainer.Save(ctx, filepath.Join(cfg.Args.OutputDir, "model")); err != nil {
		return PipelineResult{}, fmt.Errorf("error saving model: %w", err)
	}
	if err := p.Tokenizer.Save(filepath.Join(cfg.Args.OutputDir, "tokenizer")); err != nil {
		return PipelineResult{}, fmt.Errorf("error saving tokenizer: %w", err)
	}
	slog.Info("model and tokenizer saved", "dir", cfg.Args.OutputDir)

	if cfg.ModelBucket != "" {
		if err := p.Storage.UploadDir(ctx, cfg.ModelBucket, cfg.ModelPrefix, cfg.Args.OutputDir); err != nil {
			return PipelineResult{}, fmt.Errorf("error uploading model: %w", err)
		}
		slog.Info("model uploaded", "bucket", cfg.ModelBucket, "prefix", cfg.ModelPrefix)
	}

	return result, nil
}
