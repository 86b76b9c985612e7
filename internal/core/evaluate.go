package core

import (
	"context"
	"fmt"

	"ged-backend/internal/core/align"
	"ged-backend/internal/core/metrics"
)

// Evaluate scores the predictions of p against the labels of examples.
func Evaluate(ctx context.Context, p Predictor, examples []align.Example) (metrics.Scores, error) {
	preds, err := p.Predict(ctx, examples)
	if err != nil {
		return metrics.Scores{}, fmt.Errorf("error predicting: %w", err)
	}
	if len(preds) != len(examples) {
		return metrics.Scores{}, fmt.Errorf("got %d predictions for %d examples", len(preds), len(examples))
	}

	labels := make([][]int, len(examples))
	for i, ex := range examples {
		labels[i] = ex.Labels
	}

	return metrics.Compute(labels, preds), nil
}
