// Package hftok adapts HuggingFace fast tokenizers (tokenizer.json) to the
// align.Encoder capability.
package hftok

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode"
	"unicode/utf8"

	"ged-backend/internal/core/align"

	"github.com/daulet/tokenizers"
)

const tokenizerFile = "tokenizer.json"

var ErrSaveUnsupported = errors.New("tokenizer was loaded by name and cannot be saved")

type Tokenizer struct {
	tk    *tokenizers.Tokenizer
	raw   []byte
	padID int
}

// Load opens a tokenizer.json file, a directory containing one, or a
// pretrained tokenizer by name (for example "bert-base-multilingual-cased").
func Load(source string, padID int) (*Tokenizer, error) {
	path := source
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		path = filepath.Join(source, tokenizerFile)
	}

	if raw, err := os.ReadFile(path); err == nil {
		tk, err := tokenizers.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing tokenizer %s: %w", path, err)
		}
		return &Tokenizer{tk: tk, raw: raw, padID: padID}, nil
	}

	tk, err := tokenizers.FromPretrained(source)
	if err != nil {
		return nil, fmt.Errorf("error loading pretrained tokenizer %s: %w", source, err)
	}
	return &Tokenizer{tk: tk, padID: padID}, nil
}

func (t *Tokenizer) Encode(sentence string, maxLen int) (align.Encoding, error) {
	enc := t.tk.EncodeWithOptions(sentence, true, tokenizers.WithReturnAllAttributes())
	if len(enc.Offsets) != len(enc.IDs) {
		return align.Encoding{}, fmt.Errorf("tokenizer returned %d ids and %d offsets", len(enc.IDs), len(enc.Offsets))
	}

	wordIDs := WordIDs(sentence, enc.Offsets, enc.SpecialTokensMask)
	return align.FitSpecialMask(enc.IDs, wordIDs, enc.SpecialTokensMask, maxLen, t.padID)
}

// WordIDs assigns each subword the index of the whitespace-delimited word it
// came from, so that they line up with labels built from strings.Fields.
// Special tokens get align.NoWord.
func WordIDs(text string, offsets []tokenizers.Offset, specialMask []uint32) []int {
	wordIDs := make([]int, len(offsets))
	cur, lastEnd := -1, -1
	for i, off := range offsets {
		start, end := int(off[0]), int(off[1])
		if (i < len(specialMask) && specialMask[i] == 1) || (start == 0 && end == 0) {
			wordIDs[i] = align.NoWord
			continue
		}
		if cur < 0 || startsWord(text, start, lastEnd) {
			cur++
		}
		wordIDs[i] = cur
		lastEnd = end
	}
	return wordIDs
}

// startsWord reports whether a subword starting at byte offset start begins a
// new whitespace word. Byte-level BPE pieces carry their leading space, so a
// piece that starts on whitespace also opens a word.
func startsWord(text string, start, lastEnd int) bool {
	if start < lastEnd {
		return false
	}
	if start == 0 || start > len(text) {
		return true
	}
	if start < len(text) {
		r, _ := utf8.DecodeRuneInString(text[start:])
		if unicode.IsSpace(r) {
			return true
		}
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	return unicode.IsSpace(prev)
}

// Save writes tokenizer.json into dir.
func (t *Tokenizer) Save(dir string) error {
	if t.raw == nil {
		return ErrSaveUnsupported
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("error creating tokenizer dir %s: %w", dir, err)
	}
	return os.WriteFile(filepath.Join(dir, tokenizerFile), t.raw, 0644)
}

func (t *Tokenizer) Close() error {
	return t.tk.Close()
}
