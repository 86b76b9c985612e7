package api

import (
	"time"

	"github.com/google/uuid"
)

type GenerateLabelsRequest struct {
	Incorrect string
	Correct   string
}

type GenerateLabelsResponse struct {
	Tokens         []string
	Labels         []int
	IncorrectCount int
}

type BuildExampleRequest struct {
	Sentence string
	Labels   []int
}

type BuildExampleResponse struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
	Labels        []int `json:"labels"`
}

type DetectRequest struct {
	Sentence string
}

type WordStatus struct {
	Word      string
	Incorrect bool
}

type DetectResponse struct {
	Words []WordStatus
}

type SplitFiles struct {
	Source string
	Target string
}

type CreateRunRequest struct {
	Name   string
	Bucket string

	Train      SplitFiles
	Validation SplitFiles
	Test       SplitFiles

	TokenizerType   string `json:"TokenizerType,omitempty"`
	TokenizerSource string `json:"TokenizerSource,omitempty"`

	MaxLen   int    `json:"MaxLen,omitempty"`
	Limit    *int   `json:"Limit,omitempty"`
	Mismatch string `json:"Mismatch,omitempty"`

	ModelName    string  `json:"ModelName,omitempty"`
	Epochs       int     `json:"Epochs,omitempty"`
	LearningRate float64 `json:"LearningRate,omitempty"`
	BatchSize    int     `json:"BatchSize,omitempty"`
}

type CreateRunResponse struct {
	RunId uuid.UUID
}

type ListRunsParams struct {
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
}

type RunMetric struct {
	Split     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

type Run struct {
	Id            uuid.UUID
	Name          string
	Status        string
	TokenizerType string
	OutputDir     string `json:"OutputDir,omitempty"`

	CreationTime   time.Time
	StartTime      *time.Time `json:"StartTime,omitempty"`
	CompletionTime *time.Time `json:"CompletionTime,omitempty"`

	Metrics []RunMetric `json:"Metrics,omitempty"`
	Errors  []string    `json:"Errors,omitempty"`
}

type ErrorResponse struct {
	Error string
}
