package dataset

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ged-backend/internal/storage"
)

var ErrLineCountMismatch = errors.New("source and target line counts differ")

type MismatchPolicy string

const (
	MismatchTruncate MismatchPolicy = "truncate"
	MismatchError    MismatchPolicy = "error"
)

var ErrUnknownMismatchPolicy = errors.New("unknown mismatch policy")

func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch p := MismatchPolicy(s); p {
	case MismatchTruncate, MismatchError:
		return p, nil
	default:
		return "", fmt.Errorf("%w '%s', expected %s or %s", ErrUnknownMismatchPolicy, s, MismatchTruncate, MismatchError)
	}
}

const DefaultLimit = 1000

// Pair is one incorrect sentence and its corrected form.
type Pair struct {
	Incorrect string
	Correct   string
}

type ReadOptions struct {
	// Limit keeps only the first Limit pairs. Values <= 0 keep everything.
	Limit    int
	Mismatch MismatchPolicy
}

func DefaultReadOptions() ReadOptions {
	return ReadOptions{Limit: DefaultLimit, Mismatch: MismatchTruncate}
}

func readLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadPairs loads two line-aligned files and zips them into pairs.
func ReadPairs(ctx context.Context, provider storage.Provider, bucket, srcKey, tgtKey string, opts ReadOptions) ([]Pair, error) {
	srcData, err := provider.GetObject(ctx, bucket, srcKey)
	if err != nil {
		return nil, fmt.Errorf("error reading source file %s: %w", srcKey, err)
	}
	tgtData, err := provider.GetObject(ctx, bucket, tgtKey)
	if err != nil {
		return nil, fmt.Errorf("error reading target file %s: %w", tgtKey, err)
	}

	src, err := readLines(srcData)
	if err != nil {
		return nil, fmt.Errorf("error splitting source file %s: %w", srcKey, err)
	}
	tgt, err := readLines(tgtData)
	if err != nil {
		return nil, fmt.Errorf("error splitting target file %s: %w", tgtKey, err)
	}

	return ZipPairs(src, tgt, opts)
}

// ZipPairs pairs src[i] with tgt[i]. Both sides are cut to the limit before
// the mismatch policy is applied, so lines past the limit never count.
func ZipPairs(src, tgt []string, opts ReadOptions) ([]Pair, error) {
	if opts.Limit > 0 {
		src = src[:min(len(src), opts.Limit)]
		tgt = tgt[:min(len(tgt), opts.Limit)]
	}

	if len(src) != len(tgt) {
		if opts.Mismatch == MismatchError {
			return nil, fmt.Errorf("%w: %d vs %d", ErrLineCountMismatch, len(src), len(tgt))
		}
		slog.Warn("line counts differ, truncating to the shorter file", "source_lines", len(src), "target_lines", len(tgt))
	}

	pairs := make([]Pair, min(len(src), len(tgt)))
	for i := range pairs {
		pairs[i] = Pair{Incorrect: src[i], Correct: tgt[i]}
	}
	return pairs, nil
}
