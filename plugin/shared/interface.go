package shared

import (
	"context"
	"net/rpc"

	"ged-backend/internal/core/align"

	"github.com/hashicorp/go-plugin"
)

var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "GED_TRAINER_PLUGIN",
	MagicCookieValue: "token-classification",
}

const TrainerPluginName = "trainer"

var PluginMap = map[string]plugin.Plugin{
	TrainerPluginName: &TrainerPlugin{},
}

// TrainArgs are the hyperparameters forwarded to the trainer process.
type TrainArgs struct {
	OutputDir               string
	ModelName               string
	NumLabels               int
	LearningRate            float64
	PerDeviceTrainBatchSize int
	PerDeviceEvalBatchSize  int
	NumTrainEpochs          int
	WeightDecay             float64
	LoggingSteps            int
	SaveTotalLimit          int
	FP16                    bool
	EvaluateEveryEpoch      bool
	SaveEveryEpoch          bool
}

type TrainRequest struct {
	Train []align.Example
	Eval  []align.Example
	Args  TrainArgs
}

type PredictRequest struct {
	Examples []align.Example
}

// Trainer is implemented by the process that owns the model weights.
type Trainer interface {
	Train(ctx context.Context, req TrainRequest) error
	Predict(ctx context.Context, req PredictRequest) ([][]int, error)
	Save(ctx context.Context, dir string) error
}

type TrainerPlugin struct {
	Impl Trainer
}

func (p *TrainerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (p *TrainerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}
