package models

type PersonType string

const (
	PersonTypeFamily    PersonType = "family"
	PersonTypeFriend    PersonType = "friend"
	PersonTypeRomance   PersonType = "romance"
	PersonTypeColleague PersonType = "colleague"
	PersonTypeOther     PersonType = "other"
)

func ValidPersonType(t PersonType) bool {
	switch t {
	case PersonTypeFamily:
	case PersonTypeFriend:
	case PersonTypeRomance:
	case PersonTypeColleague:
	case PersonTypeOther:
	default:
		return false
	}
	return true
}

// Person is a canonical identity referenced by memories. The display name
// may later be upgraded to a more formal variant ("Тася" -> "Таиса
// Владимировна"); the type is set at creation and not revised.
type Person struct {
	ID uint `json:"id" gorm:"primaryKey"`

	UserID      uint       `json:"user_id" gorm:"not null;index"`
	DisplayName string     `json:"display_name" gorm:"not null"`
	Type        PersonType `json:"type" gorm:"not null"`

	FirstSeenMemoryID *uint           `json:"first_seen_memory_id,omitempty"`
	PipelineVersion   PipelineVersion `json:"pipeline_version" gorm:"not null;default:v1;index"`
	Notes             *string         `json:"notes,omitempty"`
}

func (Person) TableName() string {
	return "persons"
}
