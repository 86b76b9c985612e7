package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ged-backend/internal/core/align"
	"ged-backend/internal/core/labels"
	"ged-backend/internal/core/metrics"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitOnnxRuntime loads the onnxruntime shared library. Only the first call
// has an effect.
func InitOnnxRuntime(dylib string) error {
	initOnce.Do(func() {
		if dylib != "" {
			ort.SetSharedLibraryPath(dylib)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

const numClasses = 2

type WordStatus struct {
	Word      string `json:"word"`
	Incorrect bool   `json:"incorrect"`
}

// OnnxDetector runs an exported token classification model with inputs
// input_ids and attention_mask and a logits output of shape [1, maxLen, 2].
type OnnxDetector struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	encoder align.Encoder
	maxLen  int
}

func LoadOnnxDetector(modelPath string, encoder align.Encoder, maxLen int) (*OnnxDetector, error) {
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session from %s: %w", modelPath, err)
	}

	return &OnnxDetector{session: session, encoder: encoder, maxLen: maxLen}, nil
}

func toInt64(xs []int) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

func (d *OnnxDetector) logits(ids, mask []int) ([][]float32, error) {
	L := int64(len(ids))

	idsT, err := ort.NewTensor(ort.NewShape(1, L), toInt64(ids))
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()

	maskT, err := ort.NewTensor(ort.NewShape(1, L), toInt64(mask))
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()

	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(1, L, numClasses))
	if err != nil {
		return nil, err
	}
	defer outT.Destroy()

	d.mu.Lock()
	err = d.session.Run([]ort.Value{idsT, maskT}, []ort.Value{outT})
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("session run error: %w", err)
	}

	flat := outT.GetData()
	seq := make([][]float32, L)
	for t := int64(0); t < L; t++ {
		seq[t] = flat[t*numClasses : (t+1)*numClasses]
	}
	return seq, nil
}

func (d *OnnxDetector) Predict(ctx context.Context, examples []align.Example) ([][]int, error) {
	preds := make([][]int, 0, len(examples))
	for i, ex := range examples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq, err := d.logits(ex.InputIDs, ex.AttentionMask)
		if err != nil {
			return nil, fmt.Errorf("error predicting example %d: %w", i, err)
		}
		preds = append(preds, metrics.Argmax(seq))
	}
	return preds, nil
}

// Detect marks every whitespace word of sentence as correct or incorrect.
func (d *OnnxDetector) Detect(sentence string) ([]WordStatus, error) {
	return PredictSentence(context.Background(), d, d.encoder, sentence, d.maxLen)
}

// PredictSentence encodes a single sentence, runs it through p and maps the
// token predictions back onto the whitespace words of sentence.
func PredictSentence(ctx context.Context, p Predictor, encoder align.Encoder, sentence string, maxLen int) ([]WordStatus, error) {
	enc, err := encoder.Encode(sentence, maxLen)
	if err != nil {
		return nil, fmt.Errorf("error encoding sentence: %w", err)
	}

	preds, err := p.Predict(ctx, []align.Example{{InputIDs: enc.IDs, AttentionMask: enc.AttentionMask}})
	if err != nil {
		return nil, fmt.Errorf("error predicting sentence: %w", err)
	}
	if len(preds) != 1 {
		return nil, fmt.Errorf("got %d predictions for 1 sentence", len(preds))
	}

	return wordStatuses(strings.Fields(sentence), enc.WordIDs, preds[0]), nil
}

// wordStatuses takes the prediction of the first subword of each word. Words
// without any subword, e.g. after truncation, are reported as correct.
func wordStatuses(words []string, wordIDs []int, preds []int) []WordStatus {
	out := make([]WordStatus, len(words))
	seen := make([]bool, len(words))
	for i, w := range words {
		out[i].Word = w
	}

	for pos, wid := range wordIDs {
		if wid < 0 || wid >= len(words) || seen[wid] || pos >= len(preds) {
			continue
		}
		seen[wid] = true
		out[wid].Incorrect = preds[pos] == labels.Incorrect
	}
	return out
}

func (d *OnnxDetector) Release() {
	d.session.Destroy()
}
