package labels

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	Correct   = 0
	Incorrect = 1
)

// Generate marks every word of incorrect that the diff against correct
// replaces or deletes. Words only present in correct produce no label.
// The result always has len(incorrect) entries.
func Generate(incorrect, correct []string) []int {
	labels := make([]int, len(incorrect))
	if len(incorrect) == 0 {
		return labels
	}

	// Every word is significant, so autoJunk stays off.
	matcher := difflib.NewMatcherWithJunk(incorrect, correct, false, nil)

	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r', 'd':
			for i := op.I1; i < op.I2; i++ {
				labels[i] = Incorrect
			}
		}
	}

	return labels
}

// GenerateFromSentences splits both sentences on whitespace and labels the
// words of incorrect.
func GenerateFromSentences(incorrect, correct string) []int {
	return Generate(strings.Fields(incorrect), strings.Fields(correct))
}

// CountIncorrect returns the number of words labelled Incorrect.
func CountIncorrect(labels []int) int {
	n := 0
	for _, l := range labels {
		if l == Incorrect {
			n++
		}
	}
	return n
}
