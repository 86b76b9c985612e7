package dataset

import (
	"fmt"

	"ged-backend/internal/core/align"

	"github.com/parquet-go/parquet-go"
)

type exampleRow struct {
	Sentence      string  `parquet:"sentence"`
	InputIDs      []int64 `parquet:"input_ids"`
	AttentionMask []int64 `parquet:"attention_mask"`
	Labels        []int64 `parquet:"labels"`
}

func toInt64(xs []int) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

// WriteParquet writes one parquet row per example, next to the sentence it
// was built from.
func WriteParquet(path string, sentences []string, examples []align.Example) error {
	if len(sentences) != len(examples) {
		return fmt.Errorf("got %d sentences for %d examples", len(sentences), len(examples))
	}

	rows := make([]exampleRow, len(examples))
	for i, ex := range examples {
		rows[i] = exampleRow{
			Sentence:      sentences[i],
			InputIDs:      toInt64(ex.InputIDs),
			AttentionMask: toInt64(ex.AttentionMask),
			Labels:        toInt64(ex.Labels),
		}
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing parquet file %s: %w", path, err)
	}
	return nil
}

// ReadParquetLabels reads back the label column of a file written by WriteParquet.
func ReadParquetLabels(path string) ([][]int, error) {
	rows, err := parquet.ReadFile[exampleRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading parquet file %s: %w", path, err)
	}

	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = make([]int, len(row.Labels))
		for j, l := range row.Labels {
			out[i][j] = int(l)
		}
	}
	return out, nil
}
