package models

import (
	"time"

	"github.com/lib/pq"
)

// Memory is one extracted biographical fact. Rows are created only by
// applying validated extractor output and are never mutated afterward
// except through their link tables.
type Memory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserID          uint `json:"user_id" gorm:"not null;index"`
	SessionID       uint `json:"session_id" gorm:"not null;index"`
	SourceMessageID uint `json:"source_message_id" gorm:"not null;index"`

	Summary      string         `json:"summary" gorm:"not null"`
	Narrative    string         `json:"narrative" gorm:"not null"`
	TimeText     *string        `json:"time_text,omitempty"`
	LocationText *string        `json:"location_text,omitempty"`
	Topics       pq.StringArray `json:"topics" gorm:"type:text[]"`

	ImportanceScore float64         `json:"importance_score" gorm:"default:0.5"`
	PipelineVersion PipelineVersion `json:"pipeline_version" gorm:"not null;default:v1;index"`

	Persons  []MemoryPerson  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Chapters []MemoryChapter `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// MemoryPerson links a memory to a person it mentions. At most one row per
// (memory, person) pair; repeated evidence only ever raises the confidence.
type MemoryPerson struct {
	MemoryID   uint    `json:"memory_id" gorm:"primaryKey"`
	PersonID   uint    `json:"person_id" gorm:"primaryKey"`
	Confidence float64 `json:"confidence" gorm:"default:0.5"`
}

func (MemoryPerson) TableName() string {
	return "memory_person"
}

// MemoryChapter links a memory into a chapter, same invariants as MemoryPerson.
type MemoryChapter struct {
	MemoryID   uint    `json:"memory_id" gorm:"primaryKey"`
	ChapterID  uint    `json:"chapter_id" gorm:"primaryKey"`
	Confidence float64 `json:"confidence" gorm:"default:0.5"`
}

func (MemoryChapter) TableName() string {
	return "memory_chapter"
}
