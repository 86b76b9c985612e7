package labels_test

import (
	"fmt"
	"strings"
	"testing"

	"ged-backend/internal/core/labels"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		incorrect []string
		correct   []string
		want      []int
	}{
		{"replaced middle word", []string{"वह", "गलत", "वाक्य"}, []string{"वह", "सही", "वाक्य"}, []int{0, 1, 0}},
		{"deleted middle word", []string{"एक", "दो", "तीन"}, []string{"एक", "तीन"}, []int{0, 1, 0}},
		{"empty incorrect", []string{}, []string{"कोई", "शब्द"}, []int{}},
		{"both empty", nil, nil, []int{}},
		{"empty correct", []string{"a", "b"}, nil, []int{1, 1}},
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, []int{0, 0, 0}},
		{"entirely different", []string{"a", "b", "c"}, []string{"x", "y", "z"}, []int{1, 1, 1}},
		{"insert only", []string{"a", "c"}, []string{"a", "b", "c"}, []int{0, 0}},
		{"uneven replace", []string{"a", "x", "y", "d"}, []string{"a", "z", "d"}, []int{0, 1, 1, 0}},
		{"trailing deletion", []string{"a", "b", "c", "c"}, []string{"a", "b", "c"}, []int{0, 0, 0, 1}},
		{"no normalization", []string{"Word", "word"}, []string{"word", "word"}, []int{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels.Generate(tt.incorrect, tt.correct)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.incorrect))
		})
	}
}

func TestGenerateLengthMatchesIncorrect(t *testing.T) {
	corrects := [][]string{nil, {"a"}, {"a", "b", "c", "d", "e", "f"}, {"z", "z", "z"}}
	incorrects := [][]string{nil, {"a"}, {"b", "a"}, {"a", "b", "c", "d"}, {"q", "r", "s", "t", "u", "v", "w"}}

	for _, inc := range incorrects {
		for _, cor := range corrects {
			assert.Len(t, labels.Generate(inc, cor), len(inc), "incorrect=%v correct=%v", inc, cor)
		}
	}
}

func TestGenerateIdenticalIsAllCorrect(t *testing.T) {
	for _, n := range []int{1, 5, 50, 500} {
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = fmt.Sprintf("w%d", i%7)
		}
		got := labels.Generate(tokens, tokens)
		assert.Equal(t, 0, labels.CountIncorrect(got), "n=%d", n)
		assert.Len(t, got, n)
	}
}

func TestGenerateLongSentenceKeepsFrequentWords(t *testing.T) {
	// Long enough that a popularity heuristic would kick in for "the".
	var incorrect, correct []string
	for i := 0; i < 150; i++ {
		incorrect = append(incorrect, "the", fmt.Sprintf("w%d", i))
		correct = append(correct, "the", fmt.Sprintf("w%d", i))
	}
	incorrect[151] = "wrong"

	got := labels.Generate(incorrect, correct)

	assert.Equal(t, 1, labels.CountIncorrect(got))
	assert.Equal(t, labels.Incorrect, got[151])
}

func TestGenerateIsDeterministic(t *testing.T) {
	incorrect := strings.Fields("a b a b c a b")
	correct := strings.Fields("a b c a b b a")

	first := labels.Generate(incorrect, correct)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, labels.Generate(incorrect, correct))
	}
}

func TestGenerateFromSentences(t *testing.T) {
	got := labels.GenerateFromSentences("  यह  एक गलत वाक्य है। ", "यह एक सही वाक्य है।")
	assert.Equal(t, []int{0, 0, 1, 0, 0}, got)
}
