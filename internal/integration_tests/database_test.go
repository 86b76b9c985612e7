//go:build integration

package integrationtests

import (
	"context"
	"testing"
	"time"

	"ged-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRunLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db, err := database.NewDatabase(setupPostgresContainer(t, ctx))
	require.NoError(t, err)

	run := database.TrainingRun{
		Id:           uuid.New(),
		Name:         "hindi-ged",
		Status:       database.JobQueued,
		Config:       []byte(`{"limit": 10}`),
		CreationTime: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&run).Error)

	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.JobRunning))

	metric := database.RunMetric{RunId: run.Id, Split: database.SplitTest, Precision: 0.5, Recall: 0.25, F1: 1.0 / 3, Support: 12}
	require.NoError(t, database.SaveRunMetric(ctx, db, metric))

	metric.Support = 14
	require.NoError(t, database.SaveRunMetric(ctx, db, metric))

	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.JobCompleted))

	var got database.TrainingRun
	require.NoError(t, db.Preload("Metrics").First(&got, "id = ?", run.Id).Error)
	assert.Equal(t, database.JobCompleted, got.Status)
	assert.Equal(t, "hf", got.TokenizerType)
	assert.True(t, got.StartTime.Valid)
	assert.True(t, got.CompletionTime.Valid)
	require.Len(t, got.Metrics, 1)
	assert.Equal(t, 14, got.Metrics[0].Support)
}
