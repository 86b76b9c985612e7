package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ged-backend/internal/core/align"
	"ged-backend/internal/core/labels"
	"ged-backend/internal/core/utils"

	"github.com/schollz/progressbar/v3"
)

// Label runs the label generator over every pair. Results keep input order.
func Label(ctx context.Context, pairs []Pair, workers int) ([][]int, error) {
	bar := progressbar.NewOptions(len(pairs),
		progressbar.OptionSetDescription("labelling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	worker := func(_ context.Context, p Pair) ([]int, error) {
		return labels.GenerateFromSentences(p.Incorrect, p.Correct), nil
	}

	start := time.Now()
	out, err := utils.MapInPool(ctx, pairs, worker, workers, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("error labelling pairs: %w", err)
	}

	slog.Info("labelled sentence pairs", "pairs", len(pairs), "workers", workers, "duration", time.Since(start))
	return out, nil
}

// Dataset pairs incorrect sentences with their word labels and builds aligned
// examples on demand.
type Dataset struct {
	Sentences []string
	Labels    [][]int
	Encoder   align.Encoder
	MaxLen    int
}

func New(ctx context.Context, pairs []Pair, encoder align.Encoder, maxLen, workers int) (*Dataset, error) {
	wordLabels, err := Label(ctx, pairs, workers)
	if err != nil {
		return nil, err
	}

	sentences := make([]string, len(pairs))
	for i, p := range pairs {
		sentences[i] = p.Incorrect
	}

	return &Dataset{Sentences: sentences, Labels: wordLabels, Encoder: encoder, MaxLen: maxLen}, nil
}

func (d *Dataset) Len() int {
	return len(d.Sentences)
}

func (d *Dataset) Get(i int) (align.Example, error) {
	if i < 0 || i >= d.Len() {
		return align.Example{}, fmt.Errorf("index %d out of range for dataset of size %d", i, d.Len())
	}
	return align.Build(d.Sentences[i], d.Labels[i], d.Encoder, d.MaxLen)
}

func (d *Dataset) All() ([]align.Example, error) {
	examples := make([]align.Example, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		ex, err := d.Get(i)
		if err != nil {
			return nil, fmt.Errorf("error building example %d: %w", i, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}
