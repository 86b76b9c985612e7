package core

import (
	"context"

	"ged-backend/internal/core/align"
)

type TokenizerType string

const (
	HFTokenizer        TokenizerType = "hf"
	WordPieceTokenizer TokenizerType = "wordpiece"
)

func ParseTokenizerType(s string) TokenizerType {
	switch TokenizerType(s) {
	case WordPieceTokenizer:
		return WordPieceTokenizer
	default:
		return HFTokenizer
	}
}

// Tokenizer is an align.Encoder that can be persisted next to a trained model.
type Tokenizer interface {
	align.Encoder

	Save(dir string) error

	Close() error
}

type Predictor interface {
	// Predict returns the argmax class of every position of every example.
	Predict(ctx context.Context, examples []align.Example) ([][]int, error)
}

type Trainer interface {
	Predictor

	Train(ctx context.Context, train, eval []align.Example, args TrainingArgs) error

	Save(ctx context.Context, dir string) error

	Release()
}

type TrainingArgs struct {
	OutputDir               string  `json:"output_dir"`
	ModelName               string  `json:"model_name"`
	LearningRate            float64 `json:"learning_rate"`
	PerDeviceTrainBatchSize int     `json:"per_device_train_batch_size"`
	PerDeviceEvalBatchSize  int     `json:"per_device_eval_batch_size"`
	NumTrainEpochs          int     `json:"num_train_epochs"`
	WeightDecay             float64 `json:"weight_decay"`
	LoggingSteps            int     `json:"logging_steps"`
	SaveTotalLimit          int     `json:"save_total_limit"`
	FP16                    bool    `json:"fp16"`
}

const DefaultModelName = "bert-base-multilingual-cased"

func DefaultTrainingArgs(outputDir string) TrainingArgs {
	return TrainingArgs{
		OutputDir:               outputDir,
		ModelName:               DefaultModelName,
		LearningRate:            5e-5,
		PerDeviceTrainBatchSize: 16,
		PerDeviceEvalBatchSize:  8,
		NumTrainEpochs:          3,
		WeightDecay:             0.01,
		LoggingSteps:            50,
		SaveTotalLimit:          1,
		FP16:                    true,
	}
}

type TrainerLoader func(ctx context.Context) (Trainer, error)

type TokenizerLoader func(tokenizerType TokenizerType, source string) (Tokenizer, error)
