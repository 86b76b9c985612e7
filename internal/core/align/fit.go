package align

import "fmt"

// Piece is a single subword produced by a tokenizer.
type Piece struct {
	ID     int
	WordID int
}

// Fit lays out prefix, body and suffix pieces in a sequence of exactly maxLen
// positions. Body pieces are truncated from the end first so that special
// pieces in prefix and suffix survive; if those alone exceed maxLen the
// sequence is cut from the end as well. Remaining positions are filled with
// padID, a zero attention mask and NoWord.
func Fit(prefix, body, suffix []Piece, maxLen, padID int) Encoding {
	if maxLen < 0 {
		maxLen = 0
	}

	budget := maxLen - len(prefix) - len(suffix)
	if budget < 0 {
		budget = 0
	}
	if len(body) > budget {
		body = body[:budget]
	}

	pieces := make([]Piece, 0, len(prefix)+len(body)+len(suffix))
	pieces = append(pieces, prefix...)
	pieces = append(pieces, body...)
	pieces = append(pieces, suffix...)
	if len(pieces) > maxLen {
		pieces = pieces[:maxLen]
	}

	enc := Encoding{
		IDs:           make([]int, maxLen),
		AttentionMask: make([]int, maxLen),
		WordIDs:       make([]int, maxLen),
	}
	for i := 0; i < maxLen; i++ {
		if i < len(pieces) {
			enc.IDs[i] = pieces[i].ID
			enc.AttentionMask[i] = 1
			enc.WordIDs[i] = pieces[i].WordID
		} else {
			enc.IDs[i] = padID
			enc.WordIDs[i] = NoWord
		}
	}
	return enc
}

// FitSpecialMask splits a tokenizer output into prefix, body and suffix by
// its special tokens mask and lays it out with Fit. Special tokens before the
// first regular token form the prefix; all later ones form the suffix.
func FitSpecialMask(ids []uint32, wordIDs []int, specialMask []uint32, maxLen, padID int) (Encoding, error) {
	if len(wordIDs) != len(ids) || len(specialMask) != len(ids) {
		return Encoding{}, fmt.Errorf("%w: %d ids, %d word ids and %d special token flags", ErrEncodingLength, len(ids), len(wordIDs), len(specialMask))
	}

	var prefix, body, suffix []Piece
	for i, id := range ids {
		piece := Piece{ID: int(id), WordID: wordIDs[i]}
		switch {
		case specialMask[i] == 0:
			body = append(body, piece)
		case len(body) == 0:
			prefix = append(prefix, piece)
		default:
			suffix = append(suffix, piece)
		}
	}

	return Fit(prefix, body, suffix, maxLen, padID), nil
}
