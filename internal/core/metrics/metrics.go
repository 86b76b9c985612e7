package metrics

import (
	"fmt"

	"ged-backend/internal/core/align"

	"gonum.org/v1/gonum/floats"
)

// Scores are binary classification scores for the "incorrect" class.
type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

func (s Scores) String() string {
	return fmt.Sprintf("precision=%.4f recall=%.4f f1=%.4f support=%d", s.Precision, s.Recall, s.F1, s.Support)
}

// Argmax returns the index of the largest logit at every position.
func Argmax(logits [][]float32) []int {
	preds := make([]int, len(logits))
	buf := make([]float64, 0, 2)
	for i, row := range logits {
		if len(row) == 0 {
			continue
		}
		buf = buf[:0]
		for _, v := range row {
			buf = append(buf, float64(v))
		}
		preds[i] = floats.MaxIdx(buf)
	}
	return preds
}

// Compute scores preds against labels, skipping every position whose label
// is align.IgnoreIndex. Rows are compared position by position; extra
// predictions beyond a label row are ignored. Undefined ratios are 0.
func Compute(labels, preds [][]int) Scores {
	var tp, fp, fn, support int

	for i, row := range labels {
		var predRow []int
		if i < len(preds) {
			predRow = preds[i]
		}
		for k, label := range row {
			if label == align.IgnoreIndex {
				continue
			}
			support++

			pred := 0
			if k < len(predRow) {
				pred = predRow[k]
			}

			switch {
			case pred == 1 && label == 1:
				tp++
			case pred == 1 && label != 1:
				fp++
			case pred != 1 && label == 1:
				fn++
			}
		}
	}

	s := Scores{Support: support}
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}
