package models

import "time"

type QuestionStatus string

const (
	QuestionStatusPending   QuestionStatus = "pending"
	QuestionStatusAsked     QuestionStatus = "asked"
	QuestionStatusDismissed QuestionStatus = "dismissed"
)

func ValidQuestionStatus(s QuestionStatus) bool {
	switch s {
	case QuestionStatusPending:
	case QuestionStatusAsked:
	case QuestionStatusDismissed:
	default:
		return false
	}
	return true
}

type QuestionTarget string

const (
	QuestionTargetPerson  QuestionTarget = "person"
	QuestionTargetChapter QuestionTarget = "chapter"
	QuestionTargetMemory  QuestionTarget = "memory"
	QuestionTargetGlobal  QuestionTarget = "global"
)

func ValidQuestionTarget(t QuestionTarget) bool {
	switch t {
	case QuestionTargetPerson:
	case QuestionTargetChapter:
	case QuestionTargetMemory:
	case QuestionTargetGlobal:
	default:
		return false
	}
	return true
}

// QuestionQueue holds planner-generated follow-up questions. The planner
// only ever inserts pending rows; status transitions happen from outside
// the pipeline core. Targets are opaque reference strings, never resolved
// against the data model.
type QuestionQueue struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserID    uint `json:"user_id" gorm:"not null;index"`
	SessionID uint `json:"session_id" gorm:"not null;index"`

	QuestionText string  `json:"question_text" gorm:"not null"`
	Reason       string  `json:"reason" gorm:"not null"`
	Confidence   float64 `json:"confidence" gorm:"default:0.5"`

	TargetType QuestionTarget `json:"target_type" gorm:"not null"`
	TargetRef  *string        `json:"target_ref,omitempty"`

	Status QuestionStatus `json:"status" gorm:"default:pending;index"`
}

func (QuestionQueue) TableName() string {
	return "question_queue"
}
