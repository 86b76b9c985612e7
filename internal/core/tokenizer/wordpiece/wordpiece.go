// Package wordpiece is a pure Go BERT WordPiece tokenizer that satisfies
// align.Encoder without native libraries.
package wordpiece

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ged-backend/internal/core/align"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/pretokenizer"
)

const vocabFile = "vocab.txt"

type Options struct {
	Lowercase bool
	UnkToken  string
	ClsToken  string
	SepToken  string
	PadToken  string
}

func DefaultOptions() Options {
	return Options{
		UnkToken: "[UNK]",
		ClsToken: "[CLS]",
		SepToken: "[SEP]",
		PadToken: "[PAD]",
	}
}

type Tokenizer struct {
	t         *tk.Tokenizer
	vocabPath string
	opts      Options

	clsID int
	sepID int
	padID int
}

// Load builds a tokenizer from a vocab.txt file or a directory holding one.
func Load(path string, opts Options) (*Tokenizer, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, vocabFile)
	}

	vocab, err := readVocab(path)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int, 4)
	for _, special := range []string{opts.UnkToken, opts.ClsToken, opts.SepToken, opts.PadToken} {
		id, ok := vocab[special]
		if !ok {
			return nil, fmt.Errorf("special token %q missing from vocab %s", special, path)
		}
		ids[special] = id
	}

	wp, err := wordpiece.NewWordPieceFromFile(path, opts.UnkToken)
	if err != nil {
		return nil, fmt.Errorf("error loading wordpiece vocab %s: %w", path, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	return &Tokenizer{
		t:         t,
		vocabPath: path,
		opts:      opts,
		clsID:     ids[opts.ClsToken],
		sepID:     ids[opts.SepToken],
		padID:     ids[opts.PadToken],
	}, nil
}

func readVocab(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening vocab %s: %w", path, err)
	}
	defer f.Close()

	vocab := make(map[string]int)
	scanner := bufio.NewScanner(f)
	idx := 0
	for scanner.Scan() {
		vocab[strings.TrimRight(scanner.Text(), "\r")] = idx
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading vocab %s: %w", path, err)
	}
	return vocab, nil
}

// Encode tokenizes every whitespace word on its own, which makes the word
// index of each piece exact.
func (w *Tokenizer) Encode(sentence string, maxLen int) (align.Encoding, error) {
	var body []align.Piece
	for wordID, word := range strings.Fields(sentence) {
		if w.opts.Lowercase {
			word = strings.ToLower(word)
		}
		enc, err := w.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(word)), false)
		if err != nil {
			return align.Encoding{}, fmt.Errorf("error encoding word %q: %w", word, err)
		}
		for _, id := range enc.GetIds() {
			body = append(body, align.Piece{ID: id, WordID: wordID})
		}
		if len(body) >= maxLen {
			break
		}
	}

	prefix := []align.Piece{{ID: w.clsID, WordID: align.NoWord}}
	suffix := []align.Piece{{ID: w.sepID, WordID: align.NoWord}}
	return align.Fit(prefix, body, suffix, maxLen, w.padID), nil
}

func (w *Tokenizer) PadID() int {
	return w.padID
}

// Save copies the vocabulary into dir.
func (w *Tokenizer) Save(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("error creating tokenizer dir %s: %w", dir, err)
	}

	src, err := os.Open(w.vocabPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, vocabFile))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("error copying vocab: %w", err)
	}
	return nil
}

func (w *Tokenizer) Close() error {
	return nil
}
