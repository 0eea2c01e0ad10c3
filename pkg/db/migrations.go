package db

import (
	"gorm.io/gorm"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

var migrations = map[string]func(*gorm.DB) error{
	"0001_backfillPipelineVersion": backfillPipelineVersion,
}

// backfillPipelineVersion tags rows created before the pipeline_version
// column existed. Everything untagged predates the two-stage pipeline and
// therefore belongs to v1.
func backfillPipelineVersion(dbc *gorm.DB) error {
	return dbc.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Memory{}).
			Where("pipeline_version IS NULL OR pipeline_version = ''").
			Update("pipeline_version", models.PipelineV1).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Person{}).
			Where("pipeline_version IS NULL OR pipeline_version = ''").
			Update("pipeline_version", models.PipelineV1).Error; err != nil {
			return err
		}
		return tx.Model(&models.PromptRun{}).
			Where("pipeline_version IS NULL OR pipeline_version = ''").
			Update("pipeline_version", models.PipelineV1).Error
	})
}
