package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobQueued    string = "QUEUED"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

type TrainingRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name          string `gorm:"not null"`
	Status        string `gorm:"size:20;not null"`
	TokenizerType string `gorm:"size:20;not null;default:'hf'"`
	OutputDir     string

	// Serialized core.PipelineConfig.
	Config datatypes.JSON

	CreationTime   time.Time
	StartTime      sql.NullTime
	CompletionTime sql.NullTime

	Metrics []RunMetric `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	Errors  []RunError  `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

const (
	SplitValidation = "validation"
	SplitTest       = "test"
)

type RunMetric struct {
	RunId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Split string    `gorm:"size:20;primaryKey"`

	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

type RunError struct {
	RunId     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ErrorId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Error     string
	Timestamp time.Time
}
