package models

import (
	"time"

	"github.com/jackc/pgtype"
)

// PromptRun is the provenance log: one immutable audit row per model
// invocation, valid or not. Offline comparison of pipeline revisions works
// entirely off this table, so it captures the full input context and raw
// output alongside cost and latency.
type PromptRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SessionID uint  `json:"session_id" gorm:"not null;index"`
	MessageID *uint `json:"message_id,omitempty" gorm:"index"`

	PromptName      string          `json:"prompt_name" gorm:"not null"`
	PromptVersion   string          `json:"prompt_version" gorm:"not null"`
	PipelineVersion PipelineVersion `json:"pipeline_version" gorm:"not null;default:v1"`
	Model           string          `json:"model" gorm:"not null"`

	InputJSON  pgtype.JSONB `json:"input_json" gorm:"type:jsonb"`
	OutputText string       `json:"output_text"`
	OutputJSON pgtype.JSONB `json:"output_json" gorm:"type:jsonb"`

	ParseOK   bool    `json:"parse_ok" gorm:"default:false"`
	ErrorText *string `json:"error_text,omitempty"`

	TokenIn   int `json:"token_in"`
	TokenOut  int `json:"token_out"`
	LatencyMS int `json:"latency_ms"`
}
