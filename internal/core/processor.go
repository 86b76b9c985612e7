package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"ged-backend/internal/core/metrics"
	"ged-backend/internal/database"
	"ged-backend/internal/messaging"
	"ged-backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskProcessor struct {
	db       *gorm.DB
	storage  storage.Provider
	reciever messaging.Reciever

	localModelDir string
	modelBucket   string

	newTrainer   TrainerLoader
	newTokenizer TokenizerLoader
}

func NewTaskProcessor(db *gorm.DB, storage storage.Provider, reciever messaging.Reciever, localModelDir, modelBucket string, newTrainer TrainerLoader, newTokenizer TokenizerLoader) *TaskProcessor {
	return &TaskProcessor{
		db:            db,
		storage:       storage,
		reciever:      reciever,
		localModelDir: localModelDir,
		modelBucket:   modelBucket,
		newTrainer:    newTrainer,
		newTokenizer:  newTokenizer,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {
	case messaging.TrainQueue:
		var payload messaging.TrainTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling train task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.processTrainTask(ctx, payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *TaskProcessor) getRunDir(runId uuid.UUID) string {
	return filepath.Join(proc.localModelDir, runId.String())
}

func (proc *TaskProcessor) failRun(ctx context.Context, runId uuid.UUID, err error) error {
	database.SaveRunError(ctx, proc.db, runId, err.Error())
	database.UpdateRunStatus(ctx, proc.db, runId, database.JobFailed) //nolint:errcheck
	return err
}

func (proc *TaskProcessor) processTrainTask(ctx context.Context, payload messaging.TrainTaskPayload) error {
	runId := payload.RunId

	var run database.TrainingRun
	if err := proc.db.WithContext(ctx).First(&run, "id = ?", runId).Error; err != nil {
		slog.Error("error fetching training run", "run_id", runId, "error", err)
		return fmt.Errorf("error getting training run: %w", err)
	}

	if run.Status != database.JobQueued {
		slog.Info("training run is not queued, skipping", "run_id", runId, "status", run.Status)
		return nil
	}

	var cfg PipelineConfig
	if err := json.Unmarshal(run.Config, &cfg); err != nil {
		return proc.failRun(ctx, runId, fmt.Errorf("error parsing run config: %w", err))
	}

	cfg.Args.OutputDir = proc.getRunDir(runId)
	if proc.modelBucket != "" {
		cfg.ModelBucket = proc.modelBucket
		cfg.ModelPrefix = runId.String()
	}

	if err := database.UpdateRunStatus(ctx, proc.db, runId, database.JobRunning); err != nil {
		return fmt.Errorf("error updating run status: %w", err)
	}

	slog.Info("processing training run", "run_id", runId, "name", run.Name, "tokenizer", run.TokenizerType)

	tokenizer, err := proc.newTokenizer(ParseTokenizerType(run.TokenizerType), cfg.Tokenizer.Source)
	if err != nil {
		slog.Error("error loading tokenizer", "run_id", runId, "error", err)
		return proc.failRun(ctx, runId, fmt.Errorf("error loading tokenizer: %w", err))
	}
	defer tokenizer.Close()

	trainer, err := proc.newTrainer(ctx)
	if err != nil {
		slog.Error("error starting trainer", "run_id", runId, "error", err)
		return proc.failRun(ctx, runId, fmt.Errorf("error starting trainer: %w", err))
	}
	defer trainer.Release()

	pipeline := Pipeline{Storage: proc.storage, Tokenizer: tokenizer, Trainer: trainer}
	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		slog.Error("training run failed", "run_id", runId, "error", err)
		return proc.failRun(ctx, runId, err)
	}

	for split, scores := range map[string]metrics.Scores{
		database.SplitValidation: result.Validation,
		database.SplitTest:       result.Test,
	} {
		metric := database.RunMetric{
			RunId:     runId,
			Split:     split,
			Precision: scores.Precision,
			Recall:    scores.Recall,
			F1:        scores.F1,
			Support:   scores.Support,
		}
		if err := database.SaveRunMetric(ctx, proc.db, metric); err != nil {
			return proc.failRun(ctx, runId, fmt.Errorf("error saving %s metrics: %w", split, err))
		}
	}

	if err := proc.db.WithContext(ctx).Model(&database.TrainingRun{Id: runId}).Update("output_dir", result.ModelDir).Error; err != nil {
		return proc.failRun(ctx, runId, fmt.Errorf("error saving output dir: %w", err))
	}

	if err := database.UpdateRunStatus(ctx, proc.db, runId, database.JobCompleted); err != nil {
		return fmt.Errorf("error updating run status after training: %w", err)
	}

	slog.Info("training run completed", "run_id", runId, "test_f1", result.Test.F1)

	return nil
}
