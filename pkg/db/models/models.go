package models

import (
	"time"
)

// PipelineVersion distinguishes which extraction strategy produced a row.
// Both versions coexist for the same user so they can be compared against
// the same conversation history.
type PipelineVersion string

const (
	PipelineV1 PipelineVersion = "v1"
	PipelineV2 PipelineVersion = "v2"
)

func ValidPipelineVersion(v PipelineVersion) bool {
	switch v {
	case PipelineV1:
	case PipelineV2:
	default:
		return false
	}
	return true
}

// User is the root of every other entity; deleting a user cascades.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Name   string `json:"name" gorm:"not null"`
	Locale string `json:"locale" gorm:"default:en"`

	Sessions []Session `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Memories []Memory  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Persons  []Person  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Chapters []Chapter `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Session is one conversation: an ordered sequence of messages.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint `json:"user_id" gorm:"not null;index"`

	Messages []Message `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is the unit of extraction. Immutable once created.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SessionID   uint        `json:"session_id" gorm:"not null;index"`
	Role        MessageRole `json:"role" gorm:"not null"`
	ContentText string      `json:"content_text" gorm:"not null"`
}
