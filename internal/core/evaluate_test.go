package core

import (
	"context"
	"testing"

	"ged-backend/internal/core/align"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constPredictor struct {
	preds [][]int
}

func (p constPredictor) Predict(ctx context.Context, examples []align.Example) ([][]int, error) {
	return p.preds, nil
}

func TestEvaluate(t *testing.T) {
	examples := []align.Example{
		{Labels: []int{-100, 0, 1, 1, -100}},
		{Labels: []int{-100, 1, 0, -100, -100}},
	}

	scores, err := Evaluate(context.Background(), constPredictor{preds: [][]int{
		{1, 0, 1, 0, 1},
		{0, 1, 1, 0, 0},
	}}, examples)
	require.NoError(t, err)

	// tp=2 fp=1 fn=1
	assert.InDelta(t, 2.0/3.0, scores.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, scores.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, scores.F1, 1e-9)
	assert.Equal(t, 5, scores.Support)
}

func TestEvaluatePredictionCountMismatch(t *testing.T) {
	_, err := Evaluate(context.Background(), constPredictor{preds: [][]int{{0}}}, []align.Example{{}, {}})
	assert.Error(t, err)
}

func TestWordStatuses(t *testing.T) {
	words := []string{"वह", "घर", "जाता"}
	// word 1 is split into two pieces, only its first piece counts
	wordIDs := []int{-1, 0, 1, 1, 2, -1, -1}
	preds := []int{1, 0, 1, 0, 0, 1, 1}

	got := wordStatuses(words, wordIDs, preds)
	assert.Equal(t, []WordStatus{
		{Word: "वह", Incorrect: false},
		{Word: "घर", Incorrect: true},
		{Word: "जाता", Incorrect: false},
	}, got)
}

func TestWordStatusesTruncated(t *testing.T) {
	got := wordStatuses([]string{"a", "b", "c"}, []int{-1, 0, -1}, []int{0, 1, 0})
	assert.Equal(t, []WordStatus{
		{Word: "a", Incorrect: true},
		{Word: "b", Incorrect: false},
		{Word: "c", Incorrect: false},
	}, got)
}

type recordingPredictor struct {
	preds    [][]int
	err      error
	examples []align.Example
}

func (p *recordingPredictor) Predict(ctx context.Context, examples []align.Example) ([][]int, error) {
	p.examples = examples
	return p.preds, p.err
}

func TestPredictSentence(t *testing.T) {
	// [CLS] यह एक गलत वाक्य है। [SEP] [PAD]
	p := &recordingPredictor{preds: [][]int{{0, 0, 0, 1, 0, 0, 1, 1}}}

	got, err := PredictSentence(context.Background(), p, &wordTokenizer{}, "यह एक गलत वाक्य है।", 8)
	require.NoError(t, err)
	assert.Equal(t, []WordStatus{
		{Word: "यह", Incorrect: false},
		{Word: "एक", Incorrect: false},
		{Word: "गलत", Incorrect: true},
		{Word: "वाक्य", Incorrect: false},
		{Word: "है।", Incorrect: false},
	}, got)

	require.Len(t, p.examples, 1)
	assert.Equal(t, []int{1, 100, 101, 102, 103, 104, 2, 0}, p.examples[0].InputIDs)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 0}, p.examples[0].AttentionMask)
}

func TestPredictSentenceWithOracleTrainer(t *testing.T) {
	got, err := PredictSentence(context.Background(), &oracleTrainer{}, &wordTokenizer{}, "वह घर जाता", 6)
	require.NoError(t, err)
	assert.Equal(t, []WordStatus{{Word: "वह"}, {Word: "घर"}, {Word: "जाता"}}, got)
}

func TestPredictSentenceErrors(t *testing.T) {
	_, err := PredictSentence(context.Background(), &recordingPredictor{err: errTrainerCrashed}, &wordTokenizer{}, "वह घर", 6)
	assert.ErrorIs(t, err, errTrainerCrashed)

	_, err = PredictSentence(context.Background(), &recordingPredictor{preds: [][]int{{0}, {0}}}, &wordTokenizer{}, "वह घर", 6)
	assert.ErrorContains(t, err, "got 2 predictions for 1 sentence")
}
