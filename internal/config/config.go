package config

import (
	"context"
	"log/slog"

	"ged-backend/internal/core"
	"ged-backend/internal/storage"
)

// StorageConfig selects S3 (or MinIO) when an endpoint or region with
// credentials is given and a local directory otherwise.
type StorageConfig struct {
	StorageDir        string `env:"STORAGE_DIR" envDefault:"./ged-data/storage"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	UseS3             bool   `env:"USE_S3" envDefault:"false"`
}

func (c StorageConfig) s3Enabled() bool {
	return c.UseS3 || c.S3EndpointURL != ""
}

func (c StorageConfig) NewProvider(ctx context.Context) (storage.Provider, error) {
	if !c.s3Enabled() {
		slog.Info("using local storage", "dir", c.StorageDir)
		return storage.NewLocalProvider(c.StorageDir), nil
	}

	slog.Info("using s3 storage", "endpoint", c.S3EndpointURL, "region", c.S3Region)
	return storage.NewS3Provider(ctx, &storage.S3ProviderConfig{
		S3EndpointURL:     c.S3EndpointURL,
		S3AccessKeyID:     c.S3AccessKeyID,
		S3SecretAccessKey: c.S3SecretAccessKey,
		S3Region:          c.S3Region,
	})
}

type TrainerConfig struct {
	TrainerExecutable string   `env:"TRAINER_EXECUTABLE" envDefault:"python3"`
	TrainerArgs       []string `env:"TRAINER_ARGS" envSeparator:" " envDefault:"plugin/ged_trainer.py"`
}

type ModelConfig struct {
	ModelDir        string `env:"MODEL_DIR" envDefault:"./ged-data/models"`
	ModelBucket     string `env:"MODEL_BUCKET_NAME"`
	TokenizerType   string `env:"TOKENIZER_TYPE" envDefault:"hf"`
	TokenizerSource string `env:"TOKENIZER_SOURCE" envDefault:"bert-base-multilingual-cased"`
	MaxLen          int    `env:"MAX_LEN" envDefault:"128"`

	// Both optional; prediction is disabled without a detector model.
	DetectorModel    string `env:"DETECTOR_MODEL"`
	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`
}

func (c ModelConfig) Tokenizer() core.TokenizerConfig {
	return core.TokenizerConfig{Type: core.ParseTokenizerType(c.TokenizerType), Source: c.TokenizerSource}
}
