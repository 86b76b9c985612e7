package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TrainingRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name      string `gorm:"not null"`
	Status    string `gorm:"size:20;not null"`
	OutputDir string

	Config datatypes.JSON

	CreationTime   time.Time
	StartTime      sql.NullTime
	CompletionTime sql.NullTime

	Metrics []RunMetric `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	Errors  []RunError  `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

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

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&TrainingRun{}, &RunMetric{}, &RunError{})
}
