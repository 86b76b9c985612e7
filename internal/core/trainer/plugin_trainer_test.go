package trainer_test

import (
	"context"
	"errors"
	"testing"

	"ged-backend/internal/core"
	"ged-backend/internal/core/align"
	"ged-backend/internal/core/trainer"
	"ged-backend/plugin/shared"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTrainer marks every position of an example as incorrect once trained.
type memoryTrainer struct {
	trained bool
	args    shared.TrainArgs
	saved   string
}

func (m *memoryTrainer) Train(ctx context.Context, req shared.TrainRequest) error {
	if len(req.Train) == 0 {
		return errors.New("no training examples")
	}
	m.trained = true
	m.args = req.Args
	return nil
}

func (m *memoryTrainer) Predict(ctx context.Context, req shared.PredictRequest) ([][]int, error) {
	out := make([][]int, len(req.Examples))
	for i, ex := range req.Examples {
		out[i] = make([]int, len(ex.InputIDs))
		if m.trained {
			for j := range out[i] {
				out[i][j] = 1
			}
		}
	}
	return out, nil
}

func (m *memoryTrainer) Save(ctx context.Context, dir string) error {
	m.saved = dir
	return nil
}

func connect(t *testing.T, impl shared.Trainer) *trainer.PluginTrainer {
	client, _ := plugin.TestPluginRPCConn(t, map[string]plugin.Plugin{
		shared.TrainerPluginName: &shared.TrainerPlugin{Impl: impl},
	}, nil)
	t.Cleanup(func() { client.Close() })

	pt, err := trainer.NewFromClient(client)
	require.NoError(t, err)
	return pt
}

func TestPluginTrainerRoundTrip(t *testing.T) {
	impl := &memoryTrainer{}
	pt := connect(t, impl)
	ctx := context.Background()

	examples := []align.Example{
		{InputIDs: []int{1, 5, 2}, AttentionMask: []int{1, 1, 1}, Labels: []int{-100, 1, -100}},
		{InputIDs: []int{1, 6, 7}, AttentionMask: []int{1, 1, 1}, Labels: []int{-100, 0, 1}},
	}

	args := core.DefaultTrainingArgs("/tmp/out")
	require.NoError(t, pt.Train(ctx, examples, examples[:1], args))
	assert.Equal(t, 5e-5, impl.args.LearningRate)
	assert.Equal(t, 16, impl.args.PerDeviceTrainBatchSize)
	assert.Equal(t, 2, impl.args.NumLabels)
	assert.True(t, impl.args.FP16)

	scores, err := core.Evaluate(ctx, pt, examples)
	require.NoError(t, err)
	// tp=2 fp=1 fn=0 over 3 scored positions
	assert.InDelta(t, 2.0/3.0, scores.Precision, 1e-9)
	assert.InDelta(t, 1.0, scores.Recall, 1e-9)
	assert.Equal(t, 3, scores.Support)

	require.NoError(t, pt.Save(ctx, "/tmp/out/model"))
	assert.Equal(t, "/tmp/out/model", impl.saved)

	pt.Release()
}

func TestPluginTrainerError(t *testing.T) {
	pt := connect(t, &memoryTrainer{})

	err := pt.Train(context.Background(), nil, nil, core.DefaultTrainingArgs(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no training examples")
}

func TestPluginTrainerCancelled(t *testing.T) {
	pt := connect(t, &memoryTrainer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pt.Predict(ctx, []align.Example{{InputIDs: []int{1}}})
	assert.ErrorIs(t, err, context.Canceled)
}
