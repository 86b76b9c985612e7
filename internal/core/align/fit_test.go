package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pieces(wordIDs ...int) []Piece {
	out := make([]Piece, len(wordIDs))
	for i, w := range wordIDs {
		out[i] = Piece{ID: 10 + i, WordID: w}
	}
	return out
}

func TestFit(t *testing.T) {
	cls := []Piece{{ID: 1, WordID: NoWord}}
	sep := []Piece{{ID: 2, WordID: NoWord}}

	t.Run("pads short sequences", func(t *testing.T) {
		enc := Fit(cls, pieces(0, 0, 1), sep, 7, 0)
		assert.Equal(t, []int{1, 10, 11, 12, 2, 0, 0}, enc.IDs)
		assert.Equal(t, []int{1, 1, 1, 1, 1, 0, 0}, enc.AttentionMask)
		assert.Equal(t, []int{NoWord, 0, 0, 1, NoWord, NoWord, NoWord}, enc.WordIDs)
	})

	t.Run("truncates body and keeps special pieces", func(t *testing.T) {
		enc := Fit(cls, pieces(0, 1, 2, 3), sep, 4, 0)
		assert.Equal(t, []int{1, 10, 11, 2}, enc.IDs)
		assert.Equal(t, []int{NoWord, 0, 1, NoWord}, enc.WordIDs)
	})

	t.Run("exact fit", func(t *testing.T) {
		enc := Fit(cls, pieces(0, 1), sep, 4, 0)
		assert.Equal(t, []int{1, 1, 1, 1}, enc.AttentionMask)
	})

	t.Run("length smaller than special pieces", func(t *testing.T) {
		enc := Fit(cls, pieces(0, 1), sep, 1, 0)
		assert.Equal(t, []int{1}, enc.IDs)
		assert.Equal(t, []int{NoWord}, enc.WordIDs)
	})

	t.Run("custom pad id", func(t *testing.T) {
		enc := Fit(nil, pieces(0), nil, 3, 99)
		assert.Equal(t, []int{10, 99, 99}, enc.IDs)
	})

	t.Run("zero length", func(t *testing.T) {
		enc := Fit(cls, pieces(0), sep, 0, 0)
		assert.Empty(t, enc.IDs)
		assert.Empty(t, enc.WordIDs)
	})
}

func TestFitSpecialMask(t *testing.T) {
	// [CLS] the cat ##s [SEP], as a BERT tokenizer reports it.
	ids := []uint32{101, 5, 6, 8, 102}
	wordIDs := []int{NoWord, 0, 1, 1, NoWord}
	special := []uint32{1, 0, 0, 0, 1}

	t.Run("pads after the suffix", func(t *testing.T) {
		enc, err := FitSpecialMask(ids, wordIDs, special, 7, 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{101, 5, 6, 8, 102, 0, 0}, enc.IDs)
		assert.Equal(t, []int{1, 1, 1, 1, 1, 0, 0}, enc.AttentionMask)
		assert.Equal(t, []int{NoWord, 0, 1, 1, NoWord, NoWord, NoWord}, enc.WordIDs)
	})

	t.Run("truncation keeps the closing special token", func(t *testing.T) {
		enc, err := FitSpecialMask(ids, wordIDs, special, 4, 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{101, 5, 6, 102}, enc.IDs)
		assert.Equal(t, []int{NoWord, 0, 1, NoWord}, enc.WordIDs)
	})

	t.Run("pair of special prefix tokens", func(t *testing.T) {
		enc, err := FitSpecialMask([]uint32{1, 2, 7, 3}, []int{NoWord, NoWord, 0, NoWord}, []uint32{1, 1, 0, 1}, 3, 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, enc.IDs)
	})

	t.Run("no special tokens", func(t *testing.T) {
		enc, err := FitSpecialMask([]uint32{5, 6}, []int{0, 1}, []uint32{0, 0}, 3, 9)
		assert.NoError(t, err)
		assert.Equal(t, []int{5, 6, 9}, enc.IDs)
	})

	t.Run("empty sentence", func(t *testing.T) {
		enc, err := FitSpecialMask([]uint32{101, 102}, []int{NoWord, NoWord}, []uint32{1, 1}, 3, 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{101, 102, 0}, enc.IDs)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		_, err := FitSpecialMask(ids, wordIDs[:2], special, 7, 0)
		assert.ErrorIs(t, err, ErrEncodingLength)
	})
}
