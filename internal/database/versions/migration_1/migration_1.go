package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type TrainingRun struct {
	TokenizerType string `gorm:"size:20;not null;default:'hf'"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&TrainingRun{}, "tokenizer_type"); err != nil {
		return fmt.Errorf("error adding TokenizerType column: %w", err)
	}

	if err := db.Model(&TrainingRun{}).
		Where("tokenizer_type IS NULL OR tokenizer_type = ''").
		Update("tokenizer_type", "hf").Error; err != nil {
		return fmt.Errorf("error setting default value for TokenizerType: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&TrainingRun{}, "tokenizer_type"); err != nil {
		return fmt.Errorf("error dropping TokenizerType column: %w", err)
	}

	return nil
}
