package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"ged-backend/internal/core"
	"ged-backend/internal/core/align"
	"ged-backend/plugin/shared"

	"github.com/hashicorp/go-plugin"
)

// PluginTrainer drives an external training process over go-plugin RPC.
type PluginTrainer struct {
	mu      sync.Mutex
	client  *plugin.Client
	trainer shared.Trainer
}

type PluginConfig struct {
	Executable string
	Args       []string
}

func LoadPluginTrainer(cfg PluginConfig) (*PluginTrainer, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(cfg.Executable, cfg.Args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	t, err := dispense(rpcClient)
	if err != nil {
		client.Kill()
		return nil, err
	}

	slog.Info("trainer plugin started", "executable", cfg.Executable)

	return &PluginTrainer{client: client, trainer: t}, nil
}

func dispense(rpcClient plugin.ClientProtocol) (shared.Trainer, error) {
	raw, err := rpcClient.Dispense(shared.TrainerPluginName)
	if err != nil {
		return nil, fmt.Errorf("error dispensing '%s': %w", shared.TrainerPluginName, err)
	}

	t, ok := raw.(shared.Trainer)
	if !ok {
		return nil, fmt.Errorf("dispensed interface '%s' is not of expected type shared.Trainer (actual type: %T)", shared.TrainerPluginName, raw)
	}
	return t, nil
}

// NewFromClient wraps an already connected plugin client, the plugin process
// is not owned by the returned trainer.
func NewFromClient(rpcClient plugin.ClientProtocol) (*PluginTrainer, error) {
	t, err := dispense(rpcClient)
	if err != nil {
		return nil, err
	}
	return &PluginTrainer{trainer: t}, nil
}

func toTrainArgs(args core.TrainingArgs) shared.TrainArgs {
	return shared.TrainArgs{
		OutputDir:               args.OutputDir,
		ModelName:               args.ModelName,
		NumLabels:               2,
		LearningRate:            args.LearningRate,
		PerDeviceTrainBatchSize: args.PerDeviceTrainBatchSize,
		PerDeviceEvalBatchSize:  args.PerDeviceEvalBatchSize,
		NumTrainEpochs:          args.NumTrainEpochs,
		WeightDecay:             args.WeightDecay,
		LoggingSteps:            args.LoggingSteps,
		SaveTotalLimit:          args.SaveTotalLimit,
		FP16:                    args.FP16,
		EvaluateEveryEpoch:      true,
		SaveEveryEpoch:          true,
	}
}

func (p *PluginTrainer) Train(ctx context.Context, train, eval []align.Example, args core.TrainingArgs) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.trainer.Train(ctx, shared.TrainRequest{Train: train, Eval: eval, Args: toTrainArgs(args)}); err != nil {
		return fmt.Errorf("trainer plugin train failed: %w", err)
	}
	return nil
}

func (p *PluginTrainer) Predict(ctx context.Context, examples []align.Example) ([][]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	preds, err := p.trainer.Predict(ctx, shared.PredictRequest{Examples: examples})
	if err != nil {
		return nil, fmt.Errorf("trainer plugin predict failed: %w", err)
	}
	return preds, nil
}

func (p *PluginTrainer) Save(ctx context.Context, dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.trainer.Save(ctx, dir); err != nil {
		return fmt.Errorf("trainer plugin save failed: %w", err)
	}
	return nil
}

func (p *PluginTrainer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return
	}

	p.client.Kill()
	p.client = nil
	p.trainer = nil
}
