package models

type ChapterStatus string

const (
	ChapterStatusDraft ChapterStatus = "draft"
	ChapterStatusReady ChapterStatus = "ready"
)

// Chapter groups memories into a period of the user's life. Chapters are
// created lazily, on the first suggestion whose confidence clears the
// linking threshold.
type Chapter struct {
	ID uint `json:"id" gorm:"primaryKey"`

	UserID     uint          `json:"user_id" gorm:"not null;index"`
	Title      string        `json:"title" gorm:"not null"`
	OrderIndex int           `json:"order_index" gorm:"default:0"`
	PeriodText *string       `json:"period_text,omitempty"`
	Status     ChapterStatus `json:"status" gorm:"default:draft"`

	Memories []MemoryChapter `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
