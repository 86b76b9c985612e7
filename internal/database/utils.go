package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func UpdateRunStatus(ctx context.Context, txn *gorm.DB, runId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	switch status {
	case JobRunning:
		updates["start_time"] = time.Now().UTC()
	case JobCompleted, JobFailed:
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error updating training run status", "run_id", runId, "status", status, "error", err)
		return err
	}
	return nil
}

func SaveRunError(ctx context.Context, txn *gorm.DB, runId uuid.UUID, errorMessage string) {
	runError := RunError{
		RunId:     runId,
		ErrorId:   uuid.New(),
		Error:     errorMessage,
		Timestamp: time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Create(&runError).Error; err != nil {
		slog.Error("error saving training run error", "run_id", runId, "error", err)
	}
}

// SaveRunMetric inserts or replaces the metrics of one split.
func SaveRunMetric(ctx context.Context, txn *gorm.DB, metric RunMetric) error {
	if err := txn.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&metric).Error; err != nil {
		slog.Error("error saving training run metric", "run_id", metric.RunId, "split", metric.Split, "error", err)
		return err
	}
	return nil
}
