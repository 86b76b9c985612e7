package align

import (
	"errors"
	"fmt"
)

const (
	// IgnoreIndex marks positions the loss and the metrics must skip.
	IgnoreIndex = -100

	// NoWord is the word index of subwords that no source word produced
	// (padding and special tokens).
	NoWord = -1
)

var ErrEncodingLength = errors.New("encoding does not match requested length")

// Encoding is the output of a tokenizer for a single sentence, already padded
// or truncated to a fixed length.
type Encoding struct {
	IDs           []int
	AttentionMask []int
	WordIDs       []int
}

// Encoder is the tokenizer capability consumed by Build.
type Encoder interface {
	Encode(sentence string, maxLen int) (Encoding, error)
}

// Example is a model-ready training example.
type Example struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
	Labels        []int `json:"labels"`
}

// Build tokenizes sentence with enc and projects the word-level labels onto
// the resulting subwords. A word index outside of wordLabels gets label 0
// (treated as correct) instead of failing.
func Build(sentence string, wordLabels []int, enc Encoder, maxLen int) (Example, error) {
	if maxLen <= 0 {
		return Example{}, fmt.Errorf("invalid max length %d", maxLen)
	}

	encoding, err := enc.Encode(sentence, maxLen)
	if err != nil {
		return Example{}, err
	}

	if len(encoding.IDs) != maxLen || len(encoding.AttentionMask) != maxLen || len(encoding.WordIDs) != maxLen {
		return Example{}, fmt.Errorf("%w: want %d, got ids=%d mask=%d word_ids=%d", ErrEncodingLength, maxLen, len(encoding.IDs), len(encoding.AttentionMask), len(encoding.WordIDs))
	}

	return Example{
		InputIDs:      encoding.IDs,
		AttentionMask: encoding.AttentionMask,
		Labels:        AlignLabels(encoding.WordIDs, wordLabels),
	}, nil
}

// AlignLabels maps each word index to the label of that word.
func AlignLabels(wordIDs []int, wordLabels []int) []int {
	aligned := make([]int, len(wordIDs))
	for k, w := range wordIDs {
		switch {
		case w == NoWord:
			aligned[k] = IgnoreIndex
		case w >= 0 && w < len(wordLabels):
			aligned[k] = wordLabels[w]
		default:
			aligned[k] = 0
		}
	}
	return aligned
}
