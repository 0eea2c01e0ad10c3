package extraction

import (
	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// PersonCandidate is one person reference returned by either extractor.
// MentionedAs is only produced by the dedicated person extractor and
// records how the person appeared in the text (role or name).
type PersonCandidate struct {
	Name        string            `json:"name"`
	Type        models.PersonType `json:"type"`
	Confidence  float64           `json:"confidence"`
	MentionedAs string            `json:"mentioned_as,omitempty"`
}

type ChapterSuggestion struct {
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}

type ExtractedMemory struct {
	Summary            string              `json:"summary"`
	Narrative          string              `json:"narrative"`
	TimeText           *string             `json:"time_text,omitempty"`
	LocationText       *string             `json:"location_text,omitempty"`
	Topics             []string            `json:"topics"`
	Importance         float64             `json:"importance"`
	Persons            []PersonCandidate   `json:"persons"`
	ChapterSuggestions []ChapterSuggestion `json:"chapter_suggestions"`
}

// ExtractorOutput is the memory-list shape.
type ExtractorOutput struct {
	Memories []ExtractedMemory `json:"memories"`
	Unknowns []string          `json:"unknowns"`
	Notes    string            `json:"notes,omitempty"`
}

// PersonExtractorOutput is the person-list shape produced by the first
// stage of the two-stage pipeline.
type PersonExtractorOutput struct {
	Persons []PersonCandidate `json:"persons"`
	Notes   string            `json:"notes,omitempty"`
}

type QuestionTarget struct {
	Type models.QuestionTarget `json:"type"`
	Ref  *string               `json:"ref,omitempty"`
}

type PlannedQuestion struct {
	QuestionText string         `json:"question_text"`
	Reason       string         `json:"reason"`
	Confidence   float64        `json:"confidence"`
	Target       QuestionTarget `json:"target"`
}

// PlannerOutput is the question-list shape.
type PlannerOutput struct {
	Questions []PlannedQuestion `json:"questions"`
}
